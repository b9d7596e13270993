// Package client talks to the /api/books/ resource the same way the book
// manager page does: every call is a single request/response round trip and
// nothing is cached between calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const booksPath = "/api/books/"

var ErrNotFound = errors.New("book not found")

// Book is a book as the API returns it
type Book struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	NewField    string    `json:"new_field"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payload is the body of a create or update. ID is omitted on create.
type Payload struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	NewField    string `json:"new_field"`
}

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every book
func (c *Client) List(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.do(ctx, http.MethodGet, nil, &books); err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

// Find fetches the list and picks the book with id, the way the edit form is populated
func (c *Client) Find(ctx context.Context, id int64) (Book, error) {
	books, err := c.List(ctx)
	if err != nil {
		return Book{}, err
	}
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, fmt.Errorf("finding book %d: %w", id, ErrNotFound)
}

func (c *Client) Create(ctx context.Context, p Payload) (Book, error) {
	p.ID = 0
	var b Book
	if err := c.do(ctx, http.MethodPost, p, &b); err != nil {
		return Book{}, fmt.Errorf("creating book: %w", err)
	}
	return b, nil
}

func (c *Client) Update(ctx context.Context, p Payload) (Book, error) {
	if p.ID <= 0 {
		return Book{}, errors.New("updating book: id is required")
	}
	var b Book
	if err := c.do(ctx, http.MethodPut, p, &b); err != nil {
		return Book{}, fmt.Errorf("updating book %d: %w", p.ID, err)
	}
	return b, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	body := struct {
		ID int64 `json:"id"`
	}{ID: id}
	if err := c.do(ctx, http.MethodDelete, body, nil); err != nil {
		return fmt.Errorf("deleting book %d: %w", id, err)
	}
	return nil
}

// Save submits f: a create when f has no id, an update otherwise
func (c *Client) Save(ctx context.Context, f Form) (Book, error) {
	p, err := f.Payload()
	if err != nil {
		return Book{}, err
	}
	if p.ID == 0 {
		return c.Create(ctx, p)
	}
	return c.Update(ctx, p)
}

func (c *Client) do(ctx context.Context, method string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+booksPath, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return apiError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func apiError(res *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	if msg == "" {
		msg = http.StatusText(res.StatusCode)
	}
	return &APIError{StatusCode: res.StatusCode, Message: msg}
}

// parseID reads the id field of a form; empty means "no id"
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}
