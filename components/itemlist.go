package components

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
)

// ListProps selects a page of the catalog.
type ListProps struct {
	ShowSold bool `msgpack:"sold"`
	Page     int  `msgpack:"page"`
}

// Query returns the backend query for the props.
func (p ListProps) Query() catalog.ListQuery {
	return catalog.ListQuery{ShowSold: p.ShowSold, Page: p.Page}.Normalize()
}

// Href returns the page URL for the props.
func (p ListProps) Href() string {
	q := url.Values{}
	if p.ShowSold {
		q.Set("show_sold", "true")
	}
	if p.Page > 1 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// ItemList is the catalog grid with paging.
type ItemList struct {
	*storefront.Component[ListProps]
	client Client
	logger *zap.Logger
}

// NewItemList creates the list view.
func NewItemList(c Client, logger *zap.Logger) *ItemList {
	l := &ItemList{client: c, logger: logger}
	l.Component = storefront.New[ListProps]("list", l)
	l.Action("page", l.turn).Method(http.MethodGet)
	return l
}

// Hydrate clamps the page number.
func (c *ItemList) Hydrate(ctx context.Context, props *ListProps) error {
	if props.Page < 1 {
		props.Page = 1
	}
	return nil
}

// Render fetches the page and renders it.
func (c *ItemList) Render(ctx context.Context, props ListProps) templ.Component {
	ctrl := storefront.NewController(func(ctx context.Context) (*catalog.List, error) {
		return c.client.ListMotorcycles(ctx, props.Query())
	})
	ctrl.OnSettle = logSettle[*catalog.List](c.logger, c.Name(), props.Href())
	return ctrl.Await(storefront.StateViews[*catalog.List]{
		Loading: Loading,
		Loaded:  func(list *catalog.List) templ.Component { return c.loaded(props, list) },
		Failed: func(err error) templ.Component {
			return fragment(`<div class="item-list">`, ErrorNotice(err, c.Refresh(props), "item-list"), `</div>`)
		},
	})
}

func (c *ItemList) loaded(props ListProps, list *catalog.List) templ.Component {
	toggle := ListProps{ShowSold: !props.ShowSold, Page: 1}
	toggleLabel := "Show sold"
	if props.ShowSold {
		toggleLabel = "Hide sold"
	}

	var cards []templ.Component
	for i := range list.Motorcycles {
		cards = append(cards, card(&list.Motorcycles[i]))
	}
	var body any = `<p class="empty">No motorcycles found.</p>`
	if len(cards) > 0 {
		body = fragment(`<div class="cards">`, cards, `</div>`)
	}

	var prev, next any
	if props.Page > 1 {
		prev = c.pageLink(ListProps{ShowSold: props.ShowSold, Page: props.Page - 1}, "page-prev", "Previous")
	}
	if list.HasNextPage {
		next = c.pageLink(ListProps{ShowSold: props.ShowSold, Page: props.Page + 1}, "page-next", "Next")
	}

	return fragment(
		`<div class="item-list"`, attrs(templ.Attributes{"data-page": strconv.Itoa(props.Page)}), `>`,
		`<div class="list-toolbar">`, c.pageLink(toggle, "sold-toggle", toggleLabel), `</div>`,
		body,
		`<nav class="pagination">`, prev,
		`<span class="page-number">`, text(fmt.Sprintf("Page %d", props.Page)), `</span>`,
		next, `</nav>`,
		`</div>`,
	)
}

// turn renders another page in place and moves the address bar along.
func (c *ItemList) turn(ctx context.Context, props ListProps, r *http.Request) storefront.Result[ListProps] {
	return storefront.OK(props).PushURL(props.Href())
}

// pageLink navigates in place with HTMX and keeps a plain href for full loads.
func (c *ItemList) pageLink(props ListProps, class, label string) templ.Component {
	a := merge(c.Wire("page", props), templ.Attributes{
		"class":     class,
		"href":      props.Href(),
		"hx-target": "closest .item-list",
		"hx-swap":   "outerHTML",
	})
	return fragment(`<a`, attrs(a), `>`, text(label), `</a>`)
}

// card renders one listing, or a placeholder when display fields are missing.
func card(m *catalog.Motorcycle) templ.Component {
	labels, err := catalog.LabelsOf(m)
	if err != nil {
		return fragment(`<div class="card card-unavailable"`, attrs(templ.Attributes{"data-id": m.ID}), `>listing unavailable</div>`)
	}
	var thumb any
	if m.ThumbnailURL != "" {
		thumb = fragment(`<img`, attrs(templ.Attributes{"class": "card-img", "src": m.ThumbnailURL, "alt": labels.Title}), `>`)
	}
	return fragment(
		`<a class="card"`, attrs(templ.Attributes{"href": "/motorcycle/" + url.PathEscape(m.ID), "data-id": m.ID}), `>`,
		thumb,
		`<h5 class="card-title">`, text(labels.Title), `</h5>`,
		`<p class="card-price">`, text(labels.Price), `</p>`,
		`<p class="card-km">`, text(labels.Odometer), `</p>`,
		when(m.Sold, `<span class="badge badge-sold">Sold</span>`),
		`</a>`,
	)
}
