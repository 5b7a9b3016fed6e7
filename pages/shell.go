// Package pages composes full documents from the catalog components and
// routes page URLs to them.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/motoshop/storefront"
)

// HTMXScript is the htmx build every page loads.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// Shell renders a complete document. The order is fixed: head, header, the
// layout container holding content, then the toast container. A nil header
// or content renders nothing in its place.
func Shell(title string, header, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html><html lang="pl"><head><meta charset="utf-8">` +
			`<meta name="viewport" content="width=device-width, initial-scale=1">` +
			`<title>` + templ.EscapeString(title) + `</title>` +
			`<script src="` + HTMXScript + `"></script>` +
			`</head><body>`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if header != nil {
			if err := header.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<main class="container">`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		if err := storefront.ToastContainer().Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
