// Package catalog holds the listing types exchanged with the store backend
// and the display labels derived from them.
package catalog

import (
	"strconv"

	"github.com/motoshop/storefront"
)

// Listing status values understood by the backend.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Image is a product photo and its thumbnail.
type Image struct {
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Motorcycle is a listing as returned by the backend. Display fields are
// pointers so that an absent field can be told apart from a zero value.
type Motorcycle struct {
	ID           string  `json:"id"`
	Year         *int    `json:"year,omitempty"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	Price        *int64  `json:"price,omitempty"`
	Km           *int64  `json:"km,omitempty"`
	Description  *string `json:"description,omitempty"`
	Sold         bool    `json:"sold,omitempty"`
	Status       string  `json:"status,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Images       []Image `json:"images,omitempty"`
}

// List is one page of listings.
type List struct {
	Page        *int         `json:"page"`
	HasNextPage bool         `json:"has_next_page"`
	Motorcycles []Motorcycle `json:"motorcycles"`
}

// Title renders "{year} {make} {model}".
func Title(m *Motorcycle) (string, error) {
	if m == nil || m.Year == nil {
		return "", &storefront.MissingFieldError{Field: "year"}
	}
	if m.Make == nil {
		return "", &storefront.MissingFieldError{Field: "make"}
	}
	if m.Model == nil {
		return "", &storefront.MissingFieldError{Field: "model"}
	}
	return strconv.Itoa(*m.Year) + " " + *m.Make + " " + *m.Model, nil
}

// PriceLabel renders "{price} pln".
func PriceLabel(m *Motorcycle) (string, error) {
	if m == nil || m.Price == nil {
		return "", &storefront.MissingFieldError{Field: "price"}
	}
	return strconv.FormatInt(*m.Price, 10) + " pln", nil
}

// OdometerLabel renders "{km} km".
func OdometerLabel(m *Motorcycle) (string, error) {
	if m == nil || m.Km == nil {
		return "", &storefront.MissingFieldError{Field: "km"}
	}
	return strconv.FormatInt(*m.Km, 10) + " km", nil
}

// Description returns the description verbatim. An empty description is
// valid; an absent one is not.
func Description(m *Motorcycle) (string, error) {
	if m == nil || m.Description == nil {
		return "", &storefront.MissingFieldError{Field: "description"}
	}
	return *m.Description, nil
}

// Labels bundles the derived display fields of a loaded listing.
type Labels struct {
	Title       string
	Price       string
	Odometer    string
	Description string
}

// LabelsOf derives every display field, failing on the first absent one.
func LabelsOf(m *Motorcycle) (Labels, error) {
	var (
		l   Labels
		err error
	)
	if l.Title, err = Title(m); err != nil {
		return Labels{}, err
	}
	if l.Price, err = PriceLabel(m); err != nil {
		return Labels{}, err
	}
	if l.Odometer, err = OdometerLabel(m); err != nil {
		return Labels{}, err
	}
	if l.Description, err = Description(m); err != nil {
		return Labels{}, err
	}
	return l, nil
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
