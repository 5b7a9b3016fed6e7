package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Year bounds accepted by the backend.
const (
	MinYear = 1000
	MaxYear = 9999
)

// Draft is the editable payload for creating or updating a listing.
type Draft struct {
	Year        int    `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Price       int64  `json:"price"`
	Km          int64  `json:"km"`
	Description string `json:"description"`
	Sold        bool   `json:"sold"`
	Status      string `json:"status,omitempty"`
}

// FieldError is a single validation problem.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a draft.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}

// Validate applies the backend's listing limits.
func (d Draft) Validate() error {
	var errs ValidationError
	if strings.TrimSpace(d.Make) == "" {
		errs = append(errs, FieldError{"make", "is required"})
	}
	if strings.TrimSpace(d.Model) == "" {
		errs = append(errs, FieldError{"model", "is required"})
	}
	if d.Year < MinYear || d.Year > MaxYear {
		errs = append(errs, FieldError{"year", fmt.Sprintf("must be between %d and %d", MinYear, MaxYear)})
	}
	if d.Price <= 0 {
		errs = append(errs, FieldError{"price", "must be greater than 0"})
	}
	if d.Km <= 0 {
		errs = append(errs, FieldError{"km", "must be greater than 0"})
	}
	switch d.Status {
	case "", StatusActive, StatusInactive:
	default:
		errs = append(errs, FieldError{"status", "must be active or inactive"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DraftOf copies the editable fields of a loaded listing. Absent fields stay zero.
func DraftOf(m *Motorcycle) Draft {
	var d Draft
	if m == nil {
		return d
	}
	if m.Year != nil {
		d.Year = *m.Year
	}
	if m.Make != nil {
		d.Make = *m.Make
	}
	if m.Model != nil {
		d.Model = *m.Model
	}
	if m.Price != nil {
		d.Price = *m.Price
	}
	if m.Km != nil {
		d.Km = *m.Km
	}
	if m.Description != nil {
		d.Description = *m.Description
	}
	d.Sold = m.Sold
	d.Status = m.Status
	return d
}

// DraftFromForm reads a submitted editor form. Numeric fields that fail to
// parse are reported as validation errors.
func DraftFromForm(form url.Values) (Draft, error) {
	d := Draft{
		Make:        strings.TrimSpace(form.Get("make")),
		Model:       strings.TrimSpace(form.Get("model")),
		Description: form.Get("description"),
		Sold:        form.Get("sold") == "on" || form.Get("sold") == "true",
		Status:      form.Get("status"),
	}
	var errs ValidationError
	year, err := strconv.Atoi(strings.TrimSpace(form.Get("year")))
	if err != nil {
		errs = append(errs, FieldError{"year", "must be a number"})
	}
	d.Year = year
	if d.Price, err = parseInt(form.Get("price")); err != nil {
		errs = append(errs, FieldError{"price", "must be a number"})
	}
	if d.Km, err = parseInt(form.Get("km")); err != nil {
		errs = append(errs, FieldError{"km", "must be a number"})
	}
	if len(errs) > 0 {
		return d, errs
	}
	return d, nil
}

func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	return strconv.ParseInt(s, 10, 64)
}

// ListQuery selects a page of listings.
type ListQuery struct {
	ShowSold bool
	Status   string
	Page     int
	Limit    int
}

// Default page size used by the backend.
const DefaultLimit = 15

// Normalize fills defaults: active status, first page, backend page size.
func (q ListQuery) Normalize() ListQuery {
	if q.Status == "" {
		q.Status = StatusActive
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}
