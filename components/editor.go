package components

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
)

// PageType selects between creating and editing a listing.
type PageType string

const (
	PageCreate PageType = "create"
	PageEdit   PageType = "edit"
)

// maxUploadSize bounds the whole body of an image upload.
const maxUploadSize = 10 << 20

// LoginPath is the sign-in page.
const LoginPath = "/login"

// EditProps selects the editor mode. Only ID and Type travel in URLs; the
// rest is filled by actions before re-rendering.
type EditProps struct {
	ID   string   `msgpack:"id"`
	Type PageType `msgpack:"type"`

	Draft    catalog.Draft           `msgpack:"-"`
	Problems catalog.ValidationError `msgpack:"-"`
	Uploaded []string                `msgpack:"-"`
	Filled   bool                    `msgpack:"-"`
}

// ItemEditPage creates and edits listings. Every request needs a session.
type ItemEditPage struct {
	*storefront.Component[EditProps]
	client Client
	logger *zap.Logger
}

// NewItemEditPage creates the editor.
func NewItemEditPage(c Client, logger *zap.Logger) *ItemEditPage {
	e := &ItemEditPage{client: c, logger: logger}
	e.Component = storefront.New[EditProps]("editor", e).Sensitive()
	e.Action("save", e.save)
	e.Action("delete", e.remove).Method(http.MethodDelete)
	e.Action("upload", e.upload).MaxBytes(maxUploadSize)
	return e
}

// Hydrate rejects requests without a session and checks the mode.
func (c *ItemEditPage) Hydrate(ctx context.Context, props *EditProps) error {
	if !SignedIn(ctx) {
		return storefront.ErrUnauthorized
	}
	switch props.Type {
	case PageCreate:
		props.ID = ""
	case PageEdit:
		if props.ID == "" {
			return fmt.Errorf("editing without an id: %w", storefront.ErrNotFound)
		}
	default:
		return fmt.Errorf("editor type %q: %w", props.Type, storefront.ErrInvalidFormat)
	}
	return nil
}

// Render shows the form. In edit mode the listing is fetched first unless an
// action already filled the draft.
func (c *ItemEditPage) Render(ctx context.Context, props EditProps) templ.Component {
	if props.Type == PageCreate || props.Filled {
		return c.form(props)
	}
	ctrl := storefront.NewController(func(ctx context.Context) (*catalog.Motorcycle, error) {
		return c.client.GetMotorcycle(ctx, props.ID)
	})
	ctrl.OnSettle = logSettle[*catalog.Motorcycle](c.logger, c.Name(), props.ID)
	return ctrl.Await(storefront.StateViews[*catalog.Motorcycle]{
		Loading: Loading,
		Loaded: func(m *catalog.Motorcycle) templ.Component {
			props.Draft = catalog.DraftOf(m)
			props.Filled = true
			return c.form(props)
		},
		Failed: func(err error) templ.Component {
			return fragment(`<div class="editor">`, ErrorNotice(err, c.Refresh(props), "editor"), `</div>`)
		},
	})
}

func (c *ItemEditPage) save(ctx context.Context, props EditProps, r *http.Request) storefront.Result[EditProps] {
	draft, err := catalog.DraftFromForm(r.Form)
	props.Draft = draft
	props.Filled = true

	var problems catalog.ValidationError
	errors.As(err, &problems)
	var more catalog.ValidationError
	if errors.As(draft.Validate(), &more) {
		problems = mergeProblems(problems, more)
	}
	if len(problems) > 0 {
		props.Problems = problems
		return storefront.OK(props).Flash(storefront.FlashError, "Please correct the highlighted fields.")
	}

	var m *catalog.Motorcycle
	if props.Type == PageCreate {
		m, err = c.client.CreateMotorcycle(ctx, draft)
	} else {
		m, err = c.client.UpdateMotorcycle(ctx, props.ID, draft)
	}
	if err != nil {
		return c.backendFailure(r, props, "Saving failed", err)
	}
	c.logger.Info("listing saved", zap.String("id", m.ID), zap.String("mode", string(props.Type)))
	return storefront.Redirect[EditProps]("/motorcycle/" + url.PathEscape(m.ID))
}

func (c *ItemEditPage) remove(ctx context.Context, props EditProps, r *http.Request) storefront.Result[EditProps] {
	if props.Type != PageEdit {
		return storefront.Err(props, fmt.Errorf("delete in %s mode: %w", props.Type, storefront.ErrInvalidFormat))
	}
	if err := c.client.DeleteMotorcycle(ctx, props.ID); err != nil {
		props.Draft, _ = catalog.DraftFromForm(r.Form)
		props.Filled = true
		return c.backendFailure(r, props, "Deleting failed", err)
	}
	c.logger.Info("listing deleted", zap.String("id", props.ID))
	return storefront.Redirect[EditProps]("/")
}

func (c *ItemEditPage) upload(ctx context.Context, props EditProps, r *http.Request) storefront.Result[EditProps] {
	if err := storefront.BodyError(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return storefront.OK(props).Flash(storefront.FlashError, fmt.Sprintf("The upload could not be read: it is larger than %d MB.", maxUploadSize>>20))
		}
		c.logger.Debug("reading upload", zap.Error(err))
		return storefront.OK(props).Flash(storefront.FlashError, "The upload could not be read.")
	}
	props.Draft, _ = catalog.DraftFromForm(r.Form)
	props.Filled = true
	props.Uploaded = r.Form["uploaded"]

	file, header, err := r.FormFile("image")
	if err != nil {
		return storefront.OK(props).Flash(storefront.FlashError, "Choose an image to upload.")
	}
	defer file.Close()

	img, err := c.client.UploadImage(ctx, header.Filename, file)
	if err != nil {
		return c.backendFailure(r, props, "Upload failed", err)
	}
	props.Uploaded = append(props.Uploaded, img.Image)
	return storefront.OK(props).
		Flash(storefront.FlashSuccess, "Image uploaded.").
		Trigger("image:uploaded", map[string]any{"image": img.Image, "thumbnail": img.Thumbnail})
}

// backendFailure sends expired sessions to the login page and re-renders the
// form with a toast for anything else.
func (c *ItemEditPage) backendFailure(r *http.Request, props EditProps, what string, err error) storefront.Result[EditProps] {
	if storefront.IsUnauthorized(err) {
		return storefront.Redirect[EditProps](loginURL(r))
	}
	c.logger.Warn(strings.ToLower(what), zap.String("id", props.ID), zap.Error(err))
	return storefront.OK(props).Flash(storefront.FlashError, what+": "+describe(err))
}

// loginURL returns the sign-in page with next set to the page the browser
// is on.
func loginURL(r *http.Request) string {
	next := "/"
	if u, err := url.Parse(storefront.CurrentURL(r)); err == nil {
		next = SafeNext(u.RequestURI())
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func mergeProblems(a, b catalog.ValidationError) catalog.ValidationError {
	seen := make(map[string]bool, len(a))
	for _, fe := range a {
		seen[fe.Field] = true
	}
	for _, fe := range b {
		if !seen[fe.Field] {
			a = append(a, fe)
			seen[fe.Field] = true
		}
	}
	return a
}

func (c *ItemEditPage) form(props EditProps) templ.Component {
	d := props.Draft
	problem := func(field string) string {
		for _, fe := range props.Problems {
			if fe.Field == field {
				return fe.Message
			}
		}
		return ""
	}
	numeric := func(v int64) string {
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}

	title := "New listing"
	if props.Type == PageEdit {
		title = "Edit listing"
	}

	var uploaded []templ.Component
	for _, u := range props.Uploaded {
		uploaded = append(uploaded, fragment(
			`<li><a`, attrs(templ.Attributes{"href": u, "target": "_blank"}), `>`, text(u), `</a>`,
			`<input`, attrs(templ.Attributes{"type": "hidden", "name": "uploaded", "value": u}), `></li>`,
		))
	}

	var del any
	if props.Type == PageEdit {
		del = fragment(`<button type="button" class="danger-btn"`,
			attrs(merge(c.Wire("delete", props), templ.Attributes{
				"hx-confirm": "Delete this listing?",
				"hx-target":  "closest .editor",
				"hx-swap":    "outerHTML",
			})),
			`>Delete</button>`)
	}

	return fragment(
		`<div class="editor"`, attrs(templ.Attributes{"data-type": string(props.Type)}), `>`,
		`<h3>`, text(title), `</h3>`,
		`<form`, attrs(merge(c.Wire("save", props), templ.Attributes{
			"class":       "editor-form",
			"hx-target":   "closest .editor",
			"hx-swap":     "outerHTML",
			"hx-encoding": "multipart/form-data",
		})), `>`,
		field("year", "Year", "number", numeric(int64(d.Year)), problem("year")),
		field("make", "Make", "text", d.Make, problem("make")),
		field("model", "Model", "text", d.Model, problem("model")),
		field("price", "Price (pln)", "number", numeric(d.Price), problem("price")),
		field("km", "Odometer (km)", "number", numeric(d.Km), problem("km")),
		`<div class="field"><label for="description">Description</label>`,
		`<textarea id="description" name="description">`, text(d.Description), `</textarea></div>`,
		`<div class="field"><label><input`, attrs(templ.Attributes{"type": "checkbox", "name": "sold", "checked": d.Sold}), `> Sold</label></div>`,
		`<div class="field"><label for="status">Status</label><select id="status" name="status">`,
		option(catalog.StatusActive, "Active", d.Status != catalog.StatusInactive),
		option(catalog.StatusInactive, "Inactive", d.Status == catalog.StatusInactive),
		`</select>`, fieldError(problem("status")), `</div>`,
		`<div class="field"><label for="image">Photo</label><input id="image" name="image" type="file" accept="image/*">`,
		`<button type="button" class="secondary-btn"`, attrs(merge(c.Wire("upload", props), templ.Attributes{
			"hx-target":   "closest .editor",
			"hx-swap":     "outerHTML",
			"hx-encoding": "multipart/form-data",
			"hx-include":  "closest form",
		})), `>Upload</button></div>`,
		when(len(uploaded) > 0, fragment(`<ul class="uploaded">`, uploaded, `</ul>`)),
		`<div class="actions"><button type="submit" class="normal-btn">Save</button>`, del, `</div>`,
		`</form></div>`,
	)
}

func field(name, label, typ, value, problem string) templ.Component {
	a := templ.Attributes{"id": name, "name": name, "type": typ, "value": value}
	if problem != "" {
		a["aria-invalid"] = "true"
	}
	return fragment(
		`<div class="field"><label`, attrs(templ.Attributes{"for": name}), `>`, text(label), `</label>`,
		`<input`, attrs(a), `>`, fieldError(problem), `</div>`,
	)
}

func fieldError(problem string) any {
	if problem == "" {
		return nil
	}
	return fragment(`<p class="field-error">`, text(problem), `</p>`)
}

func option(value, label string, selected bool) templ.Component {
	return fragment(`<option`, attrs(templ.Attributes{"value": value, "selected": selected}), `>`, text(label), `</option>`)
}
