package cli

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/marcelsud/bookcatalog/client"
)

var headers = []string{"ID", "Title", "Description", "Author", "New Field", "Created At"}

const createdAtLayout = "2006-01-02 15:04:05"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderTable draws books as rows. Missing optional fields are blank and
// created_at is shown in loc.
func RenderTable(books []client.Book, loc *time.Location) string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		created := ""
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.In(loc).Format(createdAtLayout)
		}
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Description,
			b.Author,
			b.NewField,
			created,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}
