package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const bookColumns = `id, title, author, price, category, description, image, rating, published_year, pages, isbn, featured`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (models.Book, error) {
	var (
		b    models.Book
		isbn sql.NullString
	)
	err := s.Scan(
		&b.ID, &b.Title, &b.Author, &b.Price, &b.Category, &b.Description,
		&b.Image, &b.Rating, &b.PublishedYear, &b.Pages, &isbn, &b.Featured,
	)
	b.ISBN = isbn.String
	return b, err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// List returns the full collection in id order.
func (r *Repo) List(ctx context.Context) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &b, nil
}

// Create inserts b (its ID is ignored) and returns the stored record.
func (r *Repo) Create(ctx context.Context, b models.Book) (*models.Book, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO books (title, author, price, category, description, image, rating, published_year, pages, isbn, featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.Title, b.Author, b.Price, b.Category, b.Description, b.Image, b.Rating,
		b.PublishedYear, b.Pages, nullString(b.ISBN), b.Featured)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update replaces every field of the record with b.ID. It returns nil
// when no such record exists.
func (r *Repo) Update(ctx context.Context, b models.Book) (*models.Book, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, price = ?, category = ?, description = ?, image = ?,
			rating = ?, published_year = ?, pages = ?, isbn = ?, featured = ?
		WHERE id = ?
	`, b.Title, b.Author, b.Price, b.Category, b.Description, b.Image, b.Rating,
		b.PublishedYear, b.Pages, nullString(b.ISBN), b.Featured, b.ID)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, b.ID)
}

func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Upsert writes b under its own id, used by the CSV importer.
// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repo) Upsert(ctx context.Context, b models.Book) error {
	return upsert(ctx, r.DB, b)
}

// UpsertAll writes list in one transaction; on any failure nothing is kept.
func (r *Repo) UpsertAll(ctx context.Context, list []models.Book) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, b := range list {
		if err := upsert(ctx, tx, b); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, ex execer, b models.Book) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO books (id, title, author, price, category, description, image, rating, published_year, pages, isbn, featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			price = excluded.price,
			category = excluded.category,
			description = excluded.description,
			image = excluded.image,
			rating = excluded.rating,
			published_year = excluded.published_year,
			pages = excluded.pages,
			isbn = excluded.isbn,
			featured = excluded.featured
	`, b.ID, b.Title, b.Author, b.Price, b.Category, b.Description, b.Image, b.Rating,
		b.PublishedYear, b.Pages, nullString(b.ISBN), b.Featured)
	if err != nil {
		return fmt.Errorf("upsert book %d: %w", b.ID, err)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
