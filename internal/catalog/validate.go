package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"bookstore/pkg/models"
)

const (
	MinTitleLen       = 3
	MinDescriptionLen = 20
	MinPublishedYear  = 1000

	DefaultImage  = "img/background/default.jpg"
	DefaultRating = 4.0
)

// FieldErrors maps a JSON field name to its validation message.
type FieldErrors map[string]string

// BookDraft is the payload of a create or update. Optional numeric fields
// are pointers so "absent" is distinguishable from zero.
type BookDraft struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Price         *float64 `json:"price"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Rating        float64  `json:"rating"`
	PublishedYear *int     `json:"publishedYear"`
	Pages         *int     `json:"pages"`
	ISBN          string   `json:"isbn,omitempty"`
	Featured      bool     `json:"featured"`
}

// NewDraft returns the defaults an empty create form starts from.
func NewDraft(now time.Time) BookDraft {
	year := now.Year()
	return BookDraft{
		Image:         DefaultImage,
		Rating:        DefaultRating,
		PublishedYear: &year,
	}
}

// DraftFrom pre-fills a draft from a stored record, as the edit form does.
func DraftFrom(b models.Book) BookDraft {
	price := b.Price
	d := BookDraft{
		Title:       b.Title,
		Author:      b.Author,
		Price:       &price,
		Category:    b.Category,
		Description: b.Description,
		Image:       b.Image,
		Rating:      b.Rating,
		ISBN:        b.ISBN,
		Featured:    b.Featured,
	}
	// 0 is how an omitted year is stored
	if b.PublishedYear != 0 {
		year := b.PublishedYear
		d.PublishedYear = &year
	}
	if b.Pages > 0 {
		pages := b.Pages
		d.Pages = &pages
	}
	return d
}

// Book converts a validated draft into a record with the given id.
// Missing pages are stored as 0.
func (d BookDraft) Book(id int64) models.Book {
	b := models.Book{
		ID:          id,
		Title:       d.Title,
		Author:      d.Author,
		Category:    d.Category,
		Description: d.Description,
		Image:       d.Image,
		Rating:      d.Rating,
		ISBN:        d.ISBN,
		Featured:    d.Featured,
	}
	if d.Price != nil {
		b.Price = *d.Price
	}
	if d.PublishedYear != nil {
		b.PublishedYear = *d.PublishedYear
	}
	if d.Pages != nil {
		b.Pages = *d.Pages
	}
	return b
}

// Validate checks every field independently and returns one message per
// failing field, or nil when the draft may be submitted.
func Validate(d BookDraft, categories []string, now time.Time) FieldErrors {
	errs := FieldErrors{}

	switch {
	case strings.TrimSpace(d.Title) == "":
		errs["title"] = "title is required"
	case utf8.RuneCountInString(d.Title) < MinTitleLen:
		errs["title"] = "title must be at least 3 characters"
	}

	if strings.TrimSpace(d.Author) == "" {
		errs["author"] = "author is required"
	}

	switch {
	case d.Price == nil:
		errs["price"] = "price is required"
	case !(*d.Price > 0):
		errs["price"] = "price must be a positive number"
	}

	switch {
	case strings.TrimSpace(d.Category) == "":
		errs["category"] = "category is required"
	case !contains(categories, d.Category):
		errs["category"] = "category must be one of: " + strings.Join(categories, ", ")
	}

	switch {
	case strings.TrimSpace(d.Description) == "":
		errs["description"] = "description is required"
	case utf8.RuneCountInString(d.Description) < MinDescriptionLen:
		errs["description"] = "description must be at least 20 characters"
	}

	if d.PublishedYear != nil {
		if y := *d.PublishedYear; y < MinPublishedYear || y > now.Year() {
			errs["publishedYear"] = "published year is not valid"
		}
	}

	if d.Pages != nil && *d.Pages <= 0 {
		errs["pages"] = "pages must be a positive number"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Check wraps Validate, returning a *ValidationError on failure.
func Check(d BookDraft, categories []string, now time.Time) error {
	if errs := Validate(d, categories, now); errs != nil {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
