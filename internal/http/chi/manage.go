package chi

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookcatalog/book"
	"github.com/marcelsud/bookcatalog/internal/pod"
)

//go:embed web/templates/*.html web/static
var web embed.FS

var managerTemplate = template.Must(template.ParseFS(web, "web/templates/book_manager.html"))

type managerPage struct {
	PodName           string
	PodStatus         string
	MaxTitleLength    int
	MaxAuthorLength   int
	MaxNewFieldLength int
}

// getManager renders the browser front end for /api/books/
func getManager() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := pod.Current()
		page := managerPage{
			PodName:           info.Name,
			PodStatus:         info.Status,
			MaxTitleLength:    book.MaxTitleLength,
			MaxAuthorLength:   book.MaxAuthorLength,
			MaxNewFieldLength: book.MaxNewFieldLength,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := managerTemplate.Execute(w, page); err != nil {
			logger := httplog.LogEntry(r.Context())
			logger.Error().Err(err).Msg("rendering book manager")
		}
	})
}

func getHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, pod.Current())
	})
}

func staticFiles() http.Handler {
	static, err := fs.Sub(web, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(static)))
}
