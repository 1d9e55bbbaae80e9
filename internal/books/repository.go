package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern-app/lectern/internal/shared"
)

// ErrAlreadyExists indicates an ISBN collision.
var ErrAlreadyExists = errors.New("books: record already exists")

type Repository interface {
	Get(ctx context.Context, id int64) (*Book, error)
	List(ctx context.Context, req ListBooksRequest) ([]Book, int, error)
	Create(ctx context.Context, book Book) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const bookColumns = `id, title, author, isbn, published_year, summary, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Book, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

func (r *repository) List(ctx context.Context, req ListBooksRequest) ([]Book, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		pattern := "%" + normalizeSearch(*req.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}
	if req.Author != nil && *req.Author != "" {
		conditions = append(conditions, fmt.Sprintf("author = $%d", argPos))
		args = append(args, *req.Author)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM books %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY title, id
		LIMIT $%d OFFSET $%d
	`, bookColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *book)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, book Book) (int64, error) {
	var summary pgtype.Text
	if book.Summary != nil {
		summary = pgtype.Text{String: *book.Summary, Valid: true}
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO books (title, author, isbn, published_year, summary, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, book.Title, book.Author, book.ISBN, book.PublishedYear, summary, book.CreatedBy).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE books SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, column := range []string{"title", "author", "isbn", "published_year", "summary"} {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	var summary pgtype.Text
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublishedYear, &summary, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if summary.Valid {
		b.Summary = &summary.String
	}
	return &b, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: isbn already registered", ErrAlreadyExists)
	}
	return err
}
