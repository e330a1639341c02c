package books

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookstore/pkg/models"
)

// CSVHeader is the column order written by WriteCSV. ReadCSV matches
// columns by name, so files may reorder or omit optional ones.
var CSVHeader = []string{
	"id", "title", "author", "price", "category", "description", "image",
	"rating", "published_year", "pages", "isbn", "featured",
}

func WriteCSV(out io.Writer, books []models.Book) error {
	w := csv.NewWriter(out)
	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range books {
		if err := w.Write([]string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			strconv.FormatFloat(b.Price, 'f', -1, 64),
			b.Category,
			b.Description,
			b.Image,
			strconv.FormatFloat(b.Rating, 'f', -1, 64),
			strconv.Itoa(b.PublishedYear),
			strconv.Itoa(b.Pages),
			b.ISBN,
			strconv.FormatBool(b.Featured),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV parses rows written by WriteCSV. Rows without an id or title
// are skipped.
func ReadCSV(in io.Reader) ([]models.Book, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	out := make([]models.Book, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		rawID := valueAt(header, row, "id")
		title := valueAt(header, row, "title")
		if rawID == "" || title == "" {
			continue
		}

		b := models.Book{
			Title:       title,
			Author:      valueAt(header, row, "author"),
			Category:    valueAt(header, row, "category"),
			Description: valueAt(header, row, "description"),
			Image:       valueAt(header, row, "image"),
			ISBN:        valueAt(header, row, "isbn"),
		}
		if b.ID, err = strconv.ParseInt(rawID, 10, 64); err != nil {
			return nil, fmt.Errorf("parse id %q: %w", rawID, err)
		}
		if b.Price, err = parseFloat(valueAt(header, row, "price")); err != nil {
			return nil, fmt.Errorf("parse price for %d: %w", b.ID, err)
		}
		if b.Rating, err = parseFloat(valueAt(header, row, "rating")); err != nil {
			return nil, fmt.Errorf("parse rating for %d: %w", b.ID, err)
		}
		if b.PublishedYear, err = parseInt0(valueAt(header, row, "published_year")); err != nil {
			return nil, fmt.Errorf("parse published_year for %d: %w", b.ID, err)
		}
		if b.Pages, err = parseInt0(valueAt(header, row, "pages")); err != nil {
			return nil, fmt.Errorf("parse pages for %d: %w", b.ID, err)
		}
		if raw := valueAt(header, row, "featured"); raw != "" {
			if b.Featured, err = strconv.ParseBool(raw); err != nil {
				return nil, fmt.Errorf("parse featured for %d: %w", b.ID, err)
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseInt0(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
