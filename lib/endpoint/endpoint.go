// Package endpoint resolves backend API operations to concrete request paths.
//
// A Table maps an Operation to a URL template such as
// "/store/motorcycle/{id}". Placeholders are substituted at call time; a
// placeholder in the path is path-escaped, one in the query string is
// query-escaped. Tables are plain values so tests and configuration can
// supply their own.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Operation names a backend call.
type Operation string

// Operations exposed by the catalog backend.
const (
	ListMotorcycles  Operation = "GET_MOTORCYCLES"
	GetMotorcycle    Operation = "GET_MOTORCYCLE"
	UpdateMotorcycle Operation = "UPDATE_MOTORCYCLE"
	CreateMotorcycle Operation = "CREATE_MOTORCYCLE"
	DeleteMotorcycle Operation = "DELETE_MOTORCYCLE"
	UserLogin        Operation = "USER_LOGIN"
	UploadImage      Operation = "UPLOAD_IMAGE"
)

var (
	ErrUnknownOperation = errors.New("endpoint: unknown operation")
	ErrMissingParam     = errors.New("endpoint: missing parameter")
	ErrBadTemplate      = errors.New("endpoint: malformed template")
)

// MissingParamError reports a placeholder with no value.
type MissingParamError struct {
	Op   Operation
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("endpoint: %s: missing parameter %q", e.Op, e.Name)
}

func (e *MissingParamError) Is(target error) bool {
	return target == ErrMissingParam
}

// Params supplies placeholder values.
type Params map[string]string

// Table maps operations to URL templates.
type Table map[Operation]string

// Default returns the table for the stock backend.
func Default() Table {
	return Table{
		ListMotorcycles:  "/store/motorcycles?show_sold={show_sold}",
		GetMotorcycle:    "/store/motorcycle/{id}",
		UpdateMotorcycle: "/store/motorcycle/{id}",
		CreateMotorcycle: "/store/motorcycle",
		DeleteMotorcycle: "/store/motorcycle/{id}",
		UserLogin:        "/login",
		UploadImage:      "/store/productImage",
	}
}

// Resolve substitutes params into the template registered for op.
// Every placeholder must have a value; extra params are ignored.
func (t Table) Resolve(op Operation, params Params) (string, error) {
	tmpl, ok := t[op]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	var sb strings.Builder
	inQuery := false
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		if c == '?' {
			inQuery = true
		}
		if c != '{' {
			sb.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: %s: unclosed placeholder", ErrBadTemplate, op)
		}
		name := tmpl[i+1 : i+end]
		v, ok := params[name]
		if !ok || (!inQuery && v == "") {
			return "", &MissingParamError{Op: op, Name: name}
		}
		if inQuery {
			sb.WriteString(url.QueryEscape(v))
		} else {
			sb.WriteString(url.PathEscape(v))
		}
		i += end + 1
	}
	return sb.String(), nil
}

// Placeholders lists the placeholder names in op's template, in order.
func (t Table) Placeholders(op Operation) ([]string, error) {
	tmpl, ok := t[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return placeholders(op, tmpl)
}

// Validate checks that every template is well formed.
func (t Table) Validate() error {
	for op, tmpl := range t {
		if !strings.HasPrefix(tmpl, "/") {
			return fmt.Errorf("%w: %s: must start with /", ErrBadTemplate, op)
		}
		if _, err := placeholders(op, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// With returns a copy of t with overrides applied. Unknown operation names
// are rejected so that typos in configuration surface at startup.
func (t Table) With(overrides map[string]string) (Table, error) {
	out := make(Table, len(t))
	for op, tmpl := range t {
		out[op] = tmpl
	}
	for name, tmpl := range overrides {
		op := Operation(strings.ToUpper(name))
		if _, ok := t[op]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
		}
		out[op] = tmpl
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Operations returns the table's operations sorted by name.
func (t Table) Operations() []Operation {
	ops := make([]Operation, 0, len(t))
	for op := range t {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func placeholders(op Operation, tmpl string) ([]string, error) {
	var names []string
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		closing := strings.IndexByte(rest, '}')
		if open < 0 {
			if closing >= 0 {
				return nil, fmt.Errorf("%w: %s: stray }", ErrBadTemplate, op)
			}
			return names, nil
		}
		if closing < open {
			return nil, fmt.Errorf("%w: %s: unbalanced braces", ErrBadTemplate, op)
		}
		name := rest[open+1 : closing]
		if name == "" || strings.ContainsAny(name, "{/?") {
			return nil, fmt.Errorf("%w: %s: bad placeholder %q", ErrBadTemplate, op, name)
		}
		names = append(names, name)
		rest = rest[closing+1:]
	}
}
