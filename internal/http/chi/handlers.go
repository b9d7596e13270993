package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookcatalog/book"
	"github.com/marcelsud/bookcatalog/metrics"
	"github.com/rs/zerolog"
)

// NewLogger builds the JSON request logger used by the API
func NewLogger(level string) zerolog.Logger {
	logger := httplog.NewLogger("bookcatalog", httplog.Options{
		JSON: true,
	})
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}
	return logger
}

// Handlers sets up the book API, the book manager page and its static assets.
// exporter may be nil, in which case no metrics are recorded or served.
func Handlers(ctx context.Context, bookService book.UseCase, logger zerolog.Logger, exporter *metrics.OTelExporter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if exporter != nil {
		r.Use(exporter.Middleware)
		r.Method(http.MethodGet, "/metrics", exporter.ServeHTTP())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Method(http.MethodGet, "/static/*", staticFiles())

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/", getHealth())

		r.Route("/books", func(r chi.Router) {
			r.Method(http.MethodGet, "/manage", getManager())
			r.Method(http.MethodGet, "/manage/", getManager())

			r.Method(http.MethodGet, "/", getBooks(bookService))
			r.Method(http.MethodPost, "/", postBooks(bookService))
			r.Method(http.MethodPut, "/", putBook(bookService))
			r.Method(http.MethodDelete, "/", deleteBook(bookService))

			r.Method(http.MethodGet, "/{id}", getBook(bookService))
			r.Method(http.MethodPut, "/{id}", putBook(bookService))
			r.Method(http.MethodDelete, "/{id}", deleteBook(bookService))
		})
	})

	return r
}
