package components

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
	"github.com/motoshop/storefront/lib/client"
)

// fakeClient records calls and answers from its fields.
type fakeClient struct {
	mu sync.Mutex

	motorcycles map[string]*catalog.Motorcycle
	getErr      error
	gets        []string

	list    *catalog.List
	listErr error
	queries []catalog.ListQuery

	saveErr error
	created []catalog.Draft
	updated map[string]catalog.Draft

	deleteErr error
	deleted   []string

	token    *client.Token
	loginErr error
	logins   []string

	uploadErr error
	uploads   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		motorcycles: map[string]*catalog.Motorcycle{"7": honda("7")},
		updated:     map[string]catalog.Draft{},
	}
}

func honda(id string) *catalog.Motorcycle {
	return &catalog.Motorcycle{
		ID:          id,
		Year:        catalog.Int(2015),
		Make:        catalog.String("Honda"),
		Model:       catalog.String("CB500"),
		Price:       catalog.Int64(15000),
		Km:          catalog.Int64(23000),
		Description: catalog.String("Garaged, one owner."),
	}
}

func (f *fakeClient) GetMotorcycle(ctx context.Context, id string) (*catalog.Motorcycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.motorcycles[id]
	if !ok {
		return nil, &storefront.HTTPError{Method: http.MethodGet, Path: "/store/motorcycle/" + id, Status: http.StatusNotFound}
	}
	return m, nil
}

func (f *fakeClient) ListMotorcycles(ctx context.Context, q catalog.ListQuery) (*catalog.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeClient) CreateMotorcycle(ctx context.Context, d catalog.Draft) (*catalog.Motorcycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.created = append(f.created, d)
	return &catalog.Motorcycle{ID: "new-1"}, nil
}

func (f *fakeClient) UpdateMotorcycle(ctx context.Context, id string, d catalog.Draft) (*catalog.Motorcycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.updated[id] = d
	return &catalog.Motorcycle{ID: id}, nil
}

func (f *fakeClient) DeleteMotorcycle(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (*client.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, username)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.token, nil
}

func (f *fakeClient) UploadImage(ctx context.Context, filename string, r io.Reader) (*client.UploadedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, filename+":"+string(data))
	return &client.UploadedImage{Image: "http://img/" + filename, Thumbnail: "http://img/thumb_" + filename}, nil
}

func (f *fakeClient) getCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.gets...)
}

// mount registers a fresh component set around fc.
func mount(t *testing.T, fc *fakeClient) (*Set, http.Handler) {
	t.Helper()
	reg, err := storefront.NewRegistry([]byte("components-test-key"), storefront.WithLoginPath("/login"))
	require.NoError(t, err)
	set := NewSet(fc)
	set.Register(reg)
	return set, reg.Handler()
}

func signedIn() context.Context {
	return client.WithToken(context.Background(), "tok")
}
