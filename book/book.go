package book

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

/* Book is the business representation of a catalog entry. No tags here:
 * the web and storage layers own their own shapes.
 */
type Book struct {
	ID          int64
	Title       string
	Description string
	Author      string
	NewField    string
	CreatedAt   time.Time
}

const (
	MaxTitleLength    = 200
	MaxAuthorLength   = 100
	MaxNewFieldLength = 100
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrInvalidBook = errors.New("invalid book")
)

// Validate checks the fields a client is allowed to set.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBook)
	}
	if utf8.RuneCountInString(b.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidBook, MaxTitleLength)
	}
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidBook)
	}
	if utf8.RuneCountInString(b.Author) > MaxAuthorLength {
		return fmt.Errorf("%w: author exceeds %d characters", ErrInvalidBook, MaxAuthorLength)
	}
	if utf8.RuneCountInString(b.NewField) > MaxNewFieldLength {
		return fmt.Errorf("%w: new_field exceeds %d characters", ErrInvalidBook, MaxNewFieldLength)
	}
	return nil
}
