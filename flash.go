package storefront

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Flash levels for toast notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// ToastsID is the id of the container flashes are appended to.
const ToastsID = "toasts"

// Flash is a one-time notification rendered as a toast.
type Flash struct {
	Level   string // success, error, warning, info
	Message string
}

// FlashesOOB renders flashes as an out-of-band swap that appends to the
// toast container. It renders nothing when there are no flashes.
func FlashesOOB(flashes []Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(flashes) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<div id="`+ToastsID+`" hx-swap-oob="beforeend">`); err != nil {
			return err
		}
		for _, f := range flashes {
			if err := toast(f).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func toast(f Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="toast toast-`+templ.EscapeString(f.Level)+
			`" role="status" data-auto-dismiss="3000">`+templ.EscapeString(f.Message)+`</div>`)
		return err
	})
}

// ToastContainer renders the empty container targeted by flashes. Place it
// once near the end of <body>.
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="`+ToastsID+`" class="toast-container" aria-live="polite"></div>`)
		return err
	})
}
