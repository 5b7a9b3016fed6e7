package components

import (
	"context"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
)

// ItemProps selects the listing shown by ItemPage.
type ItemProps struct {
	ID string `msgpack:"id"`
}

// listing is a loaded motorcycle with its derived labels.
type listing struct {
	m      *catalog.Motorcycle
	labels catalog.Labels
}

// ItemPage is the listing detail view.
//
// Every render owns a fresh Controller: it fetches the listing once, waits
// for it and renders the loaded or failed state. A listing missing a display
// field fails instead of rendering placeholders.
type ItemPage struct {
	*storefront.Component[ItemProps]
	client Client
	logger *zap.Logger
}

// NewItemPage creates the detail view.
func NewItemPage(c Client, logger *zap.Logger) *ItemPage {
	p := &ItemPage{client: c, logger: logger}
	p.Component = storefront.New[ItemProps]("item", p)
	return p
}

// Hydrate normalizes the id.
func (c *ItemPage) Hydrate(ctx context.Context, props *ItemProps) error {
	props.ID = strings.TrimSpace(props.ID)
	return nil
}

// Render fetches the listing and renders its state.
func (c *ItemPage) Render(ctx context.Context, props ItemProps) templ.Component {
	ctrl := c.controller(props)
	return ctrl.Await(storefront.StateViews[listing]{
		Loading: Loading,
		Loaded:  func(l listing) templ.Component { return c.loaded(ctx, l) },
		Failed:  func(err error) templ.Component { return c.failed(props, err) },
	})
}

// controller returns an unmounted controller for the listing in props.
func (c *ItemPage) controller(props ItemProps) *storefront.Controller[listing] {
	ctrl := storefront.NewController(func(ctx context.Context) (listing, error) {
		m, err := c.client.GetMotorcycle(ctx, props.ID)
		if err != nil {
			return listing{}, err
		}
		labels, err := catalog.LabelsOf(m)
		if err != nil {
			return listing{}, err
		}
		return listing{m: m, labels: labels}, nil
	})
	ctrl.OnSettle = logSettle[listing](c.logger, c.Name(), props.ID)
	return ctrl
}

func (c *ItemPage) loaded(ctx context.Context, l listing) templ.Component {
	m := l.m
	return fragment(
		`<div class="item-page row"`, attrs(templ.Attributes{"data-id": m.ID}), `>`,
		`<div class="col gallery">`, gallery(m, l.labels.Title), `</div>`,
		`<div class="col text-left">`,
		`<div class="small mb-3"><button type="button" class="back-link" onclick="history.back()">&larr; Wszystkie Motocykle</button></div>`,
		`<h3 class="item-name">`, text(l.labels.Title), `</h3>`,
		when(m.Sold, `<span class="badge badge-sold">Sold</span>`),
		`<div class="row">`,
		`<h5 class="col item-cost">`, text(l.labels.Price), `</h5>`,
		`<p class="col item-odometer text-right">`, text(l.labels.Odometer), `</p>`,
		`</div>`,
		`<p class="description">`, text(l.labels.Description), `</p>`,
		`<button type="button" class="normal-btn contact-btn">Kontakt</button>`,
		when(SignedIn(ctx), fragment(
			`<a class="edit-link"`, attrs(templ.Attributes{"href": "/admin/motorcycle/" + url.PathEscape(m.ID) + "/edit"}), `>Edit listing</a>`,
		)),
		`</div></div>`,
	)
}

func gallery(m *catalog.Motorcycle, title string) templ.Component {
	var imgs []templ.Component
	for i, img := range m.Images {
		if img.ImageURL == "" {
			continue
		}
		class := "gallery-image"
		if i == 0 {
			class += " active"
		}
		imgs = append(imgs, fragment(`<img`, attrs(templ.Attributes{
			"class": class,
			"src":   img.ImageURL,
			"alt":   title,
		}), `>`))
	}
	if len(imgs) == 0 && m.ThumbnailURL != "" {
		imgs = append(imgs, fragment(`<img`, attrs(templ.Attributes{
			"class": "gallery-image active",
			"src":   m.ThumbnailURL,
			"alt":   title,
		}), `>`))
	}
	if len(imgs) == 0 {
		return fragment(`<div class="gallery-empty">No photos</div>`)
	}
	return fragment(imgs)
}

func (c *ItemPage) failed(props ItemProps, err error) templ.Component {
	return fragment(
		`<div class="item-page">`,
		ErrorNotice(err, c.Refresh(props), "item-page"),
		`</div>`,
	)
}
