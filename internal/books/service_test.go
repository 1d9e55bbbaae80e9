package books_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/audit"
	"github.com/lectern-app/lectern/internal/books"
	"github.com/lectern-app/lectern/internal/shared"
	_ "github.com/lectern-app/lectern/testing"
)

type memoryRepo struct {
	nextID int64
	items  map[int64]books.Book
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]books.Book{}}
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*books.Book, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *memoryRepo) List(_ context.Context, req books.ListBooksRequest) ([]books.Book, int, error) {
	var out []books.Book
	for _, b := range r.items {
		if req.Author != nil && b.Author != *req.Author {
			continue
		}
		if req.Search != nil && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(*req.Search)) {
			continue
		}
		out = append(out, b)
	}
	total := len(out)
	if req.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[req.Offset:]
	if req.Limit > 0 && req.Limit < len(out) {
		out = out[:req.Limit]
	}
	return out, total, nil
}

func (r *memoryRepo) Create(_ context.Context, book books.Book) (int64, error) {
	for _, existing := range r.items {
		if existing.ISBN == book.ISBN {
			return 0, books.ErrAlreadyExists
		}
	}
	r.nextID++
	book.ID = r.nextID
	book.CreatedAt = time.Now()
	book.UpdatedAt = book.CreatedAt
	r.items[book.ID] = book
	return book.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	b, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["title"]; ok {
		b.Title = v.(string)
	}
	if v, ok := updates["author"]; ok {
		b.Author = v.(string)
	}
	if v, ok := updates["isbn"]; ok {
		b.ISBN = v.(string)
	}
	if v, ok := updates["published_year"]; ok {
		b.PublishedYear = v.(int)
	}
	if v, ok := updates["summary"]; ok {
		s := v.(string)
		b.Summary = &s
	}
	b.UpdatedAt = time.Now()
	r.items[id] = b
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memoryAudit struct {
	entries []audit.Entry
}

func (a *memoryAudit) Record(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newService(t *testing.T) (*books.Service, *memoryRepo, *memoryAudit) {
	t.Helper()
	repo := newMemoryRepo()
	sink := &memoryAudit{}
	return books.NewService(repo, sink, nil), repo, sink
}

func TestCreateBook(t *testing.T) {
	svc, _, sink := newService(t)

	book, err := svc.Create(context.Background(), books.CreateBookRequest{
		Title:         "Wuthering Heights",
		Author:        "Emily Brontë",
		ISBN:          "9780141439556",
		PublishedYear: 1847,
	}, 7)
	require.NoError(t, err)
	require.NotZero(t, book.ID)
	require.Equal(t, int64(7), book.CreatedBy)

	require.Len(t, sink.entries, 1)
	require.Equal(t, "book.create", sink.entries[0].Action)
	require.Equal(t, int64(7), sink.entries[0].ActorID)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	svc, _, _ := newService(t)

	req := books.CreateBookRequest{Title: "A", Author: "B", ISBN: "9780141439556", PublishedYear: 2000}
	_, err := svc.Create(context.Background(), req, 7)
	require.NoError(t, err)

	req.Title = "Other Edition"
	_, err = svc.Create(context.Background(), req, 7)
	require.ErrorIs(t, err, books.ErrAlreadyExists)
}

func TestUpdateBookPartial(t *testing.T) {
	svc, _, sink := newService(t)

	created, err := svc.Create(context.Background(), books.CreateBookRequest{
		Title: "Old Title", Author: "Someone", ISBN: "9780141439556", PublishedYear: 2000,
	}, 7)
	require.NoError(t, err)

	title := "New Title"
	updated, err := svc.Update(context.Background(), created.ID, books.UpdateBookRequest{Title: &title}, 9)
	require.NoError(t, err)
	require.Equal(t, "New Title", updated.Title)
	require.Equal(t, "Someone", updated.Author)

	require.Len(t, sink.entries, 2)
	require.Equal(t, "book.update", sink.entries[1].Action)
}

func TestUpdateUnknownBook(t *testing.T) {
	svc, _, _ := newService(t)

	title := "anything"
	_, err := svc.Update(context.Background(), 404, books.UpdateBookRequest{Title: &title}, 7)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteBook(t *testing.T) {
	svc, repo, sink := newService(t)

	created, err := svc.Create(context.Background(), books.CreateBookRequest{
		Title: "Gone Soon", Author: "Someone", ISBN: "9780141439556", PublishedYear: 2000,
	}, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, 7))
	require.Empty(t, repo.items)
	require.Equal(t, "book.delete", sink.entries[len(sink.entries)-1].Action)

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, 7), shared.ErrNotFound)
}

func TestListClampsPagination(t *testing.T) {
	svc, repo, _ := newService(t)
	for i := 0; i < 3; i++ {
		repo.nextID++
		repo.items[repo.nextID] = books.Book{ID: repo.nextID, Title: "T", Author: "A", ISBN: string(rune('a' + i))}
	}

	items, total, err := svc.List(context.Background(), books.ListBooksRequest{Limit: 100000, Offset: -3})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 3)
}
