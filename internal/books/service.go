package books

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lectern-app/lectern/internal/audit"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo   Repository
	audit  audit.Recorder
	logger *slog.Logger
}

func NewService(repo Repository, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditor, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateBookRequest, createdBy int64) (*Book, error) {
	book := Book{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Summary:       req.Summary,
		CreatedBy:     createdBy,
	}

	id, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	book.ID = id

	s.record(ctx, createdBy, "book.create", id, map[string]any{"title": book.Title, "isbn": book.ISBN})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateBookRequest, actorID int64) (*Book, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Author != nil {
		updates["author"] = *req.Author
	}
	if req.ISBN != nil {
		updates["isbn"] = *req.ISBN
	}
	if req.PublishedYear != nil {
		updates["published_year"] = *req.PublishedYear
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update book: %w", err)
		}
		s.record(ctx, actorID, "book.update", id, map[string]any{"fields": len(updates)})
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.record(ctx, actorID, "book.delete", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListBooksRequest) ([]Book, int, error) {
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// record writes the audit entry best effort. A failed audit write must not
// undo a committed catalog change.
func (s *Service) record(ctx context.Context, actorID int64, action string, bookID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "book",
		EntityID: strconv.FormatInt(bookID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
