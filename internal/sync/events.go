package sync

import (
	"time"

	"bookstore/pkg/models"
)

const (
	BookCreated = "book.created"
	BookUpdated = "book.updated"
	BookDeleted = "book.deleted"
)

// CatalogEvent is pushed to subscribers after a successful mutation. Seq
// is assigned by Hub.Publish and increases by one per event, so a
// subscriber can tell the order and notice gaps.
type CatalogEvent struct {
	Seq    uint64       `json:"seq"`
	Type   string       `json:"type"`
	BookID int64        `json:"book_id"`
	Book   *models.Book `json:"book,omitempty"` // nil for deletes
	By     string       `json:"by,omitempty"`
	At     time.Time    `json:"at"`
}

// welcome is the first line every subscriber receives.
type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
	Seq       uint64 `json:"seq"`
}
