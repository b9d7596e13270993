package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/marcelsud/bookcatalog/book"
	"github.com/marcelsud/bookcatalog/book/sqlite"
	"github.com/marcelsud/bookcatalog/client"
	bookchi "github.com/marcelsud/bookcatalog/internal/http/chi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method      string
	Path        string
	ContentType string
	RequestID   string
	Body        map[string]any
}

// fakeAPI records every request and answers with canned responses
type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   r.Header.Get("X-Request-Id"),
	}
	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.response)
}

func (f *fakeAPI) all() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newFake(t *testing.T, status int, response string) (*fakeAPI, *client.Client) {
	t.Helper()
	api := &fakeAPI{status: status, response: response}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, client.New(srv.URL+"/", client.WithHTTPClient(srv.Client()))
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("form without id posts", func(t *testing.T) {
		api, c := newFake(t, http.StatusCreated, `{"id":1,"title":"Demo","author":"A"}`)

		b, err := c.Save(ctx, client.Form{Title: "Demo", Description: "Demo book", Author: "A", NewField: "x"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), b.ID)
		require.Len(t, api.all(), 1)
		req := api.all()[0]
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/books/", req.Path)
		assert.Equal(t, "application/json", req.ContentType)
		assert.NotEmpty(t, req.RequestID)
		assert.NotContains(t, req.Body, "id")
		assert.Equal(t, map[string]any{"title": "Demo", "description": "Demo book", "author": "A", "new_field": "x"}, req.Body)
	})

	t.Run("form with id puts", func(t *testing.T) {
		api, c := newFake(t, http.StatusOK, `{"id":4,"title":"Demo","author":"A"}`)

		_, err := c.Save(ctx, client.Form{ID: "4", Title: "Demo", Author: "A"})

		require.NoError(t, err)
		require.Len(t, api.all(), 1)
		assert.Equal(t, http.MethodPut, api.all()[0].Method)
		assert.Equal(t, float64(4), api.all()[0].Body["id"])
	})

	t.Run("blank id posts", func(t *testing.T) {
		api, c := newFake(t, http.StatusCreated, `{"id":2,"title":"Demo","author":"A"}`)
		form := client.Form{ID: "  ", Title: "Demo", Author: "A"}

		_, err := c.Save(ctx, form)

		require.NoError(t, err)
		assert.False(t, form.Editing())
		require.Len(t, api.all(), 1)
		assert.Equal(t, http.MethodPost, api.all()[0].Method)
	})

	t.Run("bad id never reaches the server", func(t *testing.T) {
		api, c := newFake(t, http.StatusOK, `{}`)

		_, err := c.Save(ctx, client.Form{ID: "four", Title: "Demo", Author: "A"})

		assert.ErrorContains(t, err, "invalid book id")
		assert.Empty(t, api.all())
	})
}

func TestDelete(t *testing.T) {
	api, c := newFake(t, http.StatusNoContent, "")

	require.NoError(t, c.Delete(context.Background(), 9))

	require.Len(t, api.all(), 1)
	assert.Equal(t, http.MethodDelete, api.all()[0].Method)
	assert.Equal(t, map[string]any{"id": float64(9)}, api.all()[0].Body)
}

func TestListAndFind(t *testing.T) {
	ctx := context.Background()
	api, c := newFake(t, http.StatusOK, `[
		{"id":1,"title":"Demo","description":null,"author":"Demo Author Name","new_field":null,"created_at":"2025-06-01T09:30:00Z"},
		{"id":2,"title":"Demo 2","description":"Demo book 2","author":"Demo Author Name 2","new_field":"test_field_2","created_at":"2025-06-01T09:31:00Z"}
	]`)

	books, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Empty(t, books[0].Description)
	assert.Equal(t, 2025, books[0].CreatedAt.Year())

	b, err := c.Find(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "test_field_2", b.NewField)

	_, err = c.Find(ctx, 3)
	assert.ErrorIs(t, err, client.ErrNotFound)

	for _, r := range api.all() {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.ContentType)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("json error body", func(t *testing.T) {
		_, c := newFake(t, http.StatusBadRequest, `{"error":"invalid book: title is required"}`)

		_, err := c.Create(ctx, client.Payload{Author: "A"})

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "invalid book: title is required", apiErr.Message)
	})

	t.Run("plain error body", func(t *testing.T) {
		_, c := newFake(t, http.StatusBadGateway, "")

		_, err := c.List(ctx)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Bad Gateway", apiErr.Message)
	})

	t.Run("server unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := client.New(srv.URL)

		_, err := c.List(ctx)

		assert.ErrorContains(t, err, "sending request")
	})

	t.Run("update without id", func(t *testing.T) {
		_, c := newFake(t, http.StatusOK, `{}`)

		_, err := c.Update(ctx, client.Payload{Title: "T", Author: "A"})

		assert.ErrorContains(t, err, "id is required")
	})
}

// TestAgainstServer drives the real handlers backed by an in-memory SQLite store.
func TestAgainstServer(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.NewRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))
	t.Cleanup(func() { _ = repo.Close(ctx) })

	srv := httptest.NewServer(bookchi.Handlers(ctx, book.NewService(repo), zerolog.Nop(), nil))
	t.Cleanup(srv.Close)
	c := client.New(srv.URL)

	books, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	created, err := c.Save(ctx, client.Form{Title: "Demo", Description: "Demo book", Author: "Demo Author Name", NewField: "test_field"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := c.Find(ctx, created.ID)
	require.NoError(t, err)
	form := client.FormFor(found)
	assert.True(t, form.Editing())
	form.Title = "Demo (2nd edition)"
	form.Description = ""

	updated, err := c.Save(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Demo (2nd edition)", updated.Title)
	assert.Empty(t, updated.Description)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	_, err = c.Save(ctx, client.Form{Title: "", Author: "A"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	require.NoError(t, c.Delete(ctx, created.ID))
	err = c.Delete(ctx, created.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	books, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}
