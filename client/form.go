package client

import (
	"strconv"
	"strings"
)

// Form mirrors the add/update form: every field is text and an empty ID
// means the submit creates a new book.
type Form struct {
	ID          string
	Title       string
	Description string
	Author      string
	NewField    string
}

// FormFor fills a form from an existing book, like clicking Edit
func FormFor(b Book) Form {
	return Form{
		ID:          strconv.FormatInt(b.ID, 10),
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		NewField:    b.NewField,
	}
}

// Editing reports whether Save will update; a blank ID creates
func (f Form) Editing() bool {
	return strings.TrimSpace(f.ID) != ""
}

func (f Form) Payload() (Payload, error) {
	id, err := parseID(f.ID)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Author:      f.Author,
		NewField:    f.NewField,
	}, nil
}
