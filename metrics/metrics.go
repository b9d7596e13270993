package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/bookcatalog/book"
)

// Metrics is a snapshot of the catalog.
type Metrics struct {
	// BookCount is the number of stored books
	BookCount int64 `json:"book_count"`

	// AuthorCount is the number of distinct authors
	AuthorCount int64 `json:"author_count"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector gathers catalog metrics.
type Collector interface {
	Collect(ctx context.Context) (Metrics, error)
}

// CatalogCollector computes metrics from a book.Reader.
type CatalogCollector struct {
	reader book.Reader
}

func NewCatalogCollector(reader book.Reader) *CatalogCollector {
	return &CatalogCollector{reader: reader}
}

func (c *CatalogCollector) Collect(ctx context.Context) (Metrics, error) {
	books, err := c.reader.SelectAll(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("selecting books: %w", err)
	}
	authors := make(map[string]struct{}, len(books))
	for _, b := range books {
		authors[b.Author] = struct{}{}
	}
	return Metrics{
		BookCount:   int64(len(books)),
		AuthorCount: int64(len(authors)),
		Timestamp:   time.Now(),
	}, nil
}
