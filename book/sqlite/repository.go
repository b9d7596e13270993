package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marcelsud/bookcatalog/book"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Repository stores books in an embedded SQLite file.
// created_at is stored as RFC 3339 text.
type Repository struct {
	DB *sql.DB
}

// NewRepository opens (or creates) the database at path. Use ":memory:" for a
// throwaway database; it is pinned to a single connection so every query sees the same data.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return &Repository{DB: db}, nil
}

func (r *Repository) CreateTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS books (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT,
  author TEXT NOT NULL,
  new_field TEXT,
  created_at TEXT NOT NULL
);`
	_, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

const selectColumns = "SELECT id, title, description, author, new_field, created_at FROM books"

func scan(rows *sql.Rows) (book.Book, error) {
	var (
		b           book.Book
		description sql.NullString
		newField    sql.NullString
		createdAt   string
	)
	if err := rows.Scan(&b.ID, &b.Title, &description, &b.Author, &newField, &createdAt); err != nil {
		return book.Book{}, fmt.Errorf("scanning book: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return book.Book{}, fmt.Errorf("parsing created_at of book %d: %w", b.ID, err)
	}
	b.Description = description.String
	b.NewField = newField.String
	b.CreatedAt = t
	return b, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) Select(ctx context.Context, id int64) (book.Book, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+" WHERE id = ?", id)
	if err != nil {
		return book.Book{}, fmt.Errorf("selecting book: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return book.Book{}, fmt.Errorf("selecting book: %w", err)
		}
		return book.Book{}, book.ErrNotFound
	}
	return scan(rows)
}

func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

func (r *Repository) Insert(ctx context.Context, b book.Book) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `
		insert into books (title, description, author, new_field, created_at)
		values(?,?,?,?,?)`,
		b.Title,
		nullable(b.Description),
		b.Author,
		nullable(b.NewField),
		b.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting book: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, b book.Book) error {
	result, err := r.DB.ExecContext(ctx, `
		update books set title=?, description=?, author=?, new_field=? where id=?`,
		b.Title,
		nullable(b.Description),
		b.Author,
		nullable(b.NewField),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return book.ErrNotFound
	}
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	if err := r.DB.Close(); err != nil {
		return fmt.Errorf("closing repository: %w", err)
	}
	return nil
}
