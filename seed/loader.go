package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marcelsud/bookcatalog/book"
	"gopkg.in/yaml.v3"
)

/* Loader reads a starter catalog from a YAML file:
 *
 *   books:
 *     - title: "Dune"
 *       author: "Frank Herbert"
 *       description: "optional"
 *       new_field: "optional"
 */

// Config represents the structure of the seed file
type Config struct {
	Books []BookConfig `yaml:"books"`
}

// BookConfig represents a single book in the YAML file
type BookConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	NewField    string `yaml:"new_field"`
}

// Loader holds the loaded books in file order
type Loader struct {
	books []book.Book
}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates the seed file. Nothing is kept if any entry is invalid.
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}

	books := make([]book.Book, 0, len(config.Books))
	for i, bc := range config.Books {
		b := book.Book{
			Title:       bc.Title,
			Description: bc.Description,
			Author:      bc.Author,
			NewField:    bc.NewField,
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validating book #%d: %w", i+1, err)
		}
		books = append(books, b)
	}
	l.books = books
	return nil
}

// List returns the loaded books
func (l *Loader) List() []book.Book {
	return append([]book.Book(nil), l.books...)
}

// Apply creates every loaded book and returns how many were created.
// When a create fails the books created so far are deleted again, so a
// failed seed leaves the catalog as it found it.
func (l *Loader) Apply(ctx context.Context, s book.UseCase) (int, error) {
	created := make([]int64, 0, len(l.books))
	for _, b := range l.books {
		saved, err := s.Create(ctx, b)
		if err != nil {
			err = fmt.Errorf("creating %q: %w", b.Title, err)
			return 0, errors.Join(err, rollback(ctx, s, created))
		}
		created = append(created, saved.ID)
	}
	return len(created), nil
}

func rollback(ctx context.Context, s book.UseCase, ids []int64) error {
	var errs []error
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("rolling back book %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ApplyIfEmpty seeds only a catalog with no books. Apply rolls back a partial
// seed, so a failed start leaves the catalog empty and the next one retries.
func (l *Loader) ApplyIfEmpty(ctx context.Context, s book.UseCase) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing books: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	return l.Apply(ctx, s)
}
