//go:build !integration

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marcelsud/bookcatalog/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Unit tests with sqlmock: they check the SQL we send and how rows are mapped,
not real database behavior. The integration suite covers that.

Run with: go test ./book/postgres/...
*/

var columns = []string{"id", "title", "description", "author", "new_field", "created_at"}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Repository{DB: db}, mock
}

func TestRepository_Insert_Unit(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO books (title, description, author, new_field, created_at)")).
		WithArgs("Demo", "Demo book", "Demo Author Name", nil, created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := repo.Insert(ctx, book.Book{
		Title:       "Demo",
		Description: "Demo book",
		Author:      "Demo Author Name",
		CreatedAt:   created,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Select_Unit(t *testing.T) {
	t.Run("select existing book", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " WHERE id = $1")).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "Demo", nil, "Demo Author Name", "test_field", created))

		b, err := repo.Select(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, book.Book{
			ID:        1,
			Title:     "Demo",
			Author:    "Demo Author Name",
			NewField:  "test_field",
			CreatedAt: created,
		}, b)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing book is ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " WHERE id = $1")).
			WithArgs(999).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.Select(context.Background(), 999)

		assert.ErrorIs(t, err, book.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_SelectAll_Unit(t *testing.T) {
	t.Run("select all books", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		created := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " ORDER BY id")).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(1, "Demo", "Demo book", "Demo Author Name", "test_field", created).
				AddRow(2, "Demo 2", "Demo book 2", "Demo Author Name 2", "test_field_2", created))

		books, err := repo.SelectAll(context.Background())

		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "Demo 2", books[1].Title)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table is an empty slice", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " ORDER BY id")).
			WillReturnRows(sqlmock.NewRows(columns))

		books, err := repo.SelectAll(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(selectColumns)).WillReturnError(errors.New("connection reset"))

		_, err := repo.SelectAll(context.Background())

		assert.ErrorContains(t, err, "selecting books")
	})
}

func TestRepository_Update_Unit(t *testing.T) {
	t.Run("update existing book", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
			WithArgs("Title", nil, "Author", "x", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(context.Background(), book.Book{ID: 3, Title: "Title", Author: "Author", NewField: "x"})

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows affected is ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), book.Book{ID: 3, Title: "Title", Author: "Author"})

		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}

func TestRepository_Delete_Unit(t *testing.T) {
	t.Run("delete existing book", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM books WHERE id = $1")).
			WithArgs(4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), 4))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing book is ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM books WHERE id = $1")).
			WithArgs(4).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 4), book.ErrNotFound)
	})
}

func TestNewDirection(t *testing.T) {
	d, err := NewDirection("up")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = NewDirection("down")
	require.NoError(t, err)
	assert.Equal(t, "down", d.String())

	_, err = NewDirection("sideways")
	assert.Error(t, err)
}
