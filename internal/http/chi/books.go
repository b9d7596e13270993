package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookcatalog/book"
)

const maxBodyBytes = 1 << 20

/*
* bookRequest is the book as the web layer receives it
 */
type bookRequest struct {
	ID          bookID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	NewField    string `json:"new_field"`
}

/*
* bookResponse is the book as the web layer returns it
 */
type bookResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	NewField    string    `json:"new_field"`
	CreatedAt   time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// bookID accepts a JSON number or a numeric string. The browser form posts the
// hidden input value, which is always a string. null and "" mean "no id".
type bookID int64

func (id *bookID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer, got %s", data)
	}
	*id = bookID(n)
	return nil
}

func (br bookRequest) toBook() book.Book {
	return book.Book{
		ID:          int64(br.ID),
		Title:       br.Title,
		Description: br.Description,
		Author:      br.Author,
		NewField:    br.NewField,
	}
}

func toResponse(b book.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		NewField:    b.NewField,
		CreatedAt:   b.CreatedAt,
	}
}

func getBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := bookService.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		result := make([]bookResponse, 0, len(all))
		for _, b := range all {
			result = append(result, toResponse(b))
		}
		writeJSON(w, r, http.StatusOK, result)
	})
}

func getBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		b, err := bookService.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toResponse(b))
	})
}

func postBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		br, err := decodeBook(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		b := br.toBook()
		b.ID = 0
		saved, err := bookService.Create(r.Context(), b)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httplog.LogEntrySetField(r.Context(), "book_id", strconv.FormatInt(saved.ID, 10))
		writeJSON(w, r, http.StatusCreated, toResponse(saved))
	})
}

func putBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		br, err := decodeBook(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		id, err := resolveID(r, int64(br.ID))
		if err != nil {
			writeError(w, r, err)
			return
		}
		b := br.toBook()
		b.ID = id
		saved, err := bookService.Update(r.Context(), b)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toResponse(saved))
	})
}

func deleteBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var bodyID int64
		if chi.URLParam(r, "id") == "" {
			br, err := decodeBook(w, r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			bodyID = int64(br.ID)
		}
		id, err := resolveID(r, bodyID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := bookService.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// errBadRequest marks client mistakes that are not domain validation errors
var errBadRequest = errors.New("bad request")

var errTooLarge = errors.New("request body too large")

func decodeBook(w http.ResponseWriter, r *http.Request) (bookRequest, error) {
	var br bookRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&br); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bookRequest{}, fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return bookRequest{}, fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return br, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, chi.URLParam(r, "id"))
	}
	return id, nil
}

// resolveID prefers the id in the path; without one the body must carry it.
func resolveID(r *http.Request, bodyID int64) (int64, error) {
	if chi.URLParam(r, "id") != "" {
		return pathID(r)
	}
	if bodyID <= 0 {
		return 0, fmt.Errorf("%w: id is required", errBadRequest)
	}
	return bodyID, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := httplog.LogEntry(r.Context())
		logger.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, book.ErrInvalidBook):
		status = http.StatusBadRequest
	case errors.Is(err, book.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	logger := httplog.LogEntry(r.Context())
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("handling book request")
		msg = http.StatusText(status)
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("rejecting book request")
	}
	writeJSON(w, r, status, errorResponse{Error: msg})
}
