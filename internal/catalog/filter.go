// Package catalog holds the pure catalog logic shared by the server and
// the client: filtering, record validation and the error taxonomy.
package catalog

import (
	"strings"

	"bookstore/pkg/models"
)

// AllCategories is the category selector that disables category filtering.
const AllCategories = "all"

// Query is a listing query: a free-text term and a category selector.
type Query struct {
	Term     string `json:"term"`
	Category string `json:"category"`
}

// ParseQuery builds a Query from raw inputs. An empty category selector
// means AllCategories.
func ParseQuery(term, category string) Query {
	if category == "" {
		category = AllCategories
	}
	return Query{Term: term, Category: category}
}

// Apply runs Filter with q.
func (q Query) Apply(books []models.Book) []models.Book {
	return Filter(books, q.Term, q.Category)
}

// Filter returns the books matching term and category, in input order.
//
// A non-empty term must appear, case-insensitively, in the title, author
// or description. A category other than AllCategories must equal the
// book's category exactly. The input slice is never modified and the
// result is never nil.
func Filter(books []models.Book, term, category string) []models.Book {
	needle := strings.ToLower(term)
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if needle != "" && !matchesTerm(b, needle) {
			continue
		}
		if category != AllCategories && b.Category != category {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesTerm(b models.Book, needle string) bool {
	return strings.Contains(strings.ToLower(b.Title), needle) ||
		strings.Contains(strings.ToLower(b.Author), needle) ||
		strings.Contains(strings.ToLower(b.Description), needle)
}

// Featured returns up to n featured books in input order. n <= 0 means no limit.
func Featured(books []models.Book, n int) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range books {
		if !b.Featured {
			continue
		}
		out = append(out, b)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
