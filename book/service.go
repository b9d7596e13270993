package book

import (
	"context"
	"fmt"
	"time"
)

/*
 * Book is data, so it travels by value. Service is an API, so it is a pointer.
 */

type UseCase interface {
	Create(ctx context.Context, b Book) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	Update(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// Create validates b, stamps its creation time and stores it. Any ID on b is ignored.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	b.ID = 0
	b.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	id, err := s.Repo.Insert(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("inserting book: %w", err)
	}
	b.ID = id
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]Book, error) {
	all, err := s.Repo.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	if all == nil {
		all = []Book{}
	}
	return all, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	b, err := s.Repo.Select(ctx, id)
	if err != nil {
		return Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return b, nil
}

// Update replaces the editable fields of the book with b.ID and returns the stored result.
// CreatedAt is never overwritten.
func (s *Service) Update(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	if err := s.Repo.Update(ctx, b); err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}
	saved, err := s.Repo.Select(ctx, b.ID)
	if err != nil {
		return Book{}, fmt.Errorf("selecting updated book: %w", err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.Repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	return nil
}
