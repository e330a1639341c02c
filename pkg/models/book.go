package models

// Book is a single catalog record as stored and served by the Catalog Store.
// No field is derived from another.
type Book struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Image         string  `json:"image"`
	Rating        float64 `json:"rating"`
	PublishedYear int     `json:"publishedYear"`
	Pages         int     `json:"pages"`
	ISBN          string  `json:"isbn,omitempty"`
	Featured      bool    `json:"featured"`
}
