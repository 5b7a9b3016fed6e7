package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/motoshop/storefront"
)

// text is escaped when rendered by fragment; plain strings are written as is.
type text string

// fragment renders its parts in order. Parts are markup strings, text,
// components or slices of components. Nil components are skipped.
func fragment(parts ...any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, part := range parts {
			var err error
			switch v := part.(type) {
			case string:
				_, err = io.WriteString(w, v)
			case text:
				_, err = io.WriteString(w, templ.EscapeString(string(v)))
			case templ.Component:
				if v != nil {
					err = v.Render(ctx, w)
				}
			case []templ.Component:
				for _, c := range v {
					if err = c.Render(ctx, w); err != nil {
						break
					}
				}
			case nil:
			default:
				err = fmt.Errorf("components: unsupported fragment part %T", part)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// attrs renders attributes with a leading space.
func attrs(a templ.Attributes) string {
	return storefront.AttrString(a)
}

// merge returns a copy of base with extra applied on top.
func merge(base templ.Attributes, extra templ.Attributes) templ.Attributes {
	out := make(templ.Attributes, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func when(cond bool, part any) any {
	if cond {
		return part
	}
	return nil
}
