// Package storefront holds the state behind one catalog view: the loaded
// collection, the current session's permissions and the mutating actions
// a signed-in admin can take.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/catalog"
	"bookstore/internal/inflight"
	"bookstore/internal/session"
	"bookstore/pkg/models"
)

// ErrClosed is returned when a result arrives after the view was closed.
// The result is discarded.
var ErrClosed = errors.New("view closed")

// Store is the remote catalog. *client.Client implements it.
type Store interface {
	ListBooks(ctx context.Context, q catalog.Query) ([]models.Book, error)
	CreateBook(ctx context.Context, d catalog.BookDraft) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, d catalog.BookDraft) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// Permissions decides which mutating controls a view shows.
type Permissions struct {
	CanCreate bool `json:"canCreate"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Listing is what a view renders: the visible books and the size of the
// whole collection ("showing X of Y").
type Listing struct {
	Books []models.Book `json:"books"`
	Total int           `json:"total"`
}

func (l Listing) Summary() string {
	return fmt.Sprintf("showing %d of %d books", len(l.Books), l.Total)
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message produced by an action.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

type Controller struct {
	store      Store
	sess       session.Session
	categories []string
	guard      *inflight.Guard

	// Now is used for validation; tests pin it.
	Now func() time.Time

	mu      sync.Mutex
	books   []models.Book
	state   catalog.LoadState
	loadErr error
	gen     uint64
	closed  bool
	notices []Notice
}

func New(store Store, sess session.Session, categories []string) *Controller {
	return &Controller{
		store:      store,
		sess:       sess,
		categories: categories,
		guard:      inflight.NewGuard(),
		Now:        time.Now,
		state:      catalog.Pending,
	}
}

func (c *Controller) Session() session.Session { return c.sess }

func (c *Controller) Permissions() Permissions {
	ok := auth.CanMutate(c.sess.Role)
	return Permissions{CanCreate: ok, CanEdit: ok, CanDelete: ok}
}

// Load fetches the full collection. Only the most recent Load of an open
// view updates the state; older or late results return ErrClosed.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	c.clearErrorsLocked()
	c.mu.Unlock()

	books, err := c.store.ListBooks(ctx, catalog.ParseQuery("", ""))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return ErrClosed
	}
	c.state = catalog.StateFor(len(books), err)
	c.loadErr = err
	if err != nil {
		c.notifyLocked(NoticeError, "could not load books: "+err.Error())
		return err
	}
	c.books = books
	return nil
}

// State reports the load state and, for catalog.Failed, the error.
func (c *Controller) State() (catalog.LoadState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.loadErr
}

// Visible applies q to the loaded collection.
func (c *Controller) Visible(q catalog.Query) Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Listing{Books: q.Apply(c.books), Total: len(c.books)}
}

// Books returns a copy of the loaded collection.
func (c *Controller) Books() []models.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Book(nil), c.books...)
}

func (c *Controller) Create(ctx context.Context, d catalog.BookDraft) (*models.Book, error) {
	key := "book:create:" + c.actor()
	release, err := c.begin("create book", key, &d)
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := c.store.CreateBook(ctx, d)
	if err == nil && b == nil {
		err = errors.New("empty response")
	}
	err = c.finish("create book", err, func() {
		c.books = append(c.books, *b)
		c.state = catalog.StateFor(len(c.books), nil)
	}, fmt.Sprintf("added %q", d.Title))
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Controller) Update(ctx context.Context, id int64, d catalog.BookDraft) (*models.Book, error) {
	release, err := c.begin("update book", bookKey(id), &d)
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := c.store.UpdateBook(ctx, id, d)
	if err == nil && b == nil {
		err = errors.New("empty response")
	}
	err = c.finish("update book", err, func() {
		for i := range c.books {
			if c.books[i].ID == id {
				c.books[i] = *b
			}
		}
	}, fmt.Sprintf("updated %q", d.Title))
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Controller) Delete(ctx context.Context, id int64) error {
	release, err := c.begin("delete book", bookKey(id), nil)
	if err != nil {
		return err
	}
	defer release()

	err = c.store.DeleteBook(ctx, id)
	return c.finish("delete book", err, func() {
		kept := make([]models.Book, 0, len(c.books))
		for _, b := range c.books {
			if b.ID != id {
				kept = append(kept, b)
			}
		}
		c.books = kept
		c.state = catalog.StateFor(len(kept), nil)
	}, fmt.Sprintf("deleted book %d", id))
}

// Close detaches the view. Results of calls still running are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Notices returns the messages produced so far, oldest first.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// begin runs the checks every mutation passes before any network call:
// the admin gate, then validation of d (when given), then the in-flight
// marker for key.
func (c *Controller) begin(action, key string, d *catalog.BookDraft) (func(), error) {
	c.mu.Lock()
	c.clearErrorsLocked()
	c.mu.Unlock()
	if !auth.CanMutate(c.sess.Role) {
		err := &catalog.AuthorizationError{Action: action, Role: c.sess.Role}
		c.notify(NoticeError, err.Error())
		return nil, err
	}
	if d != nil {
		if err := catalog.Check(*d, c.categories, c.Now()); err != nil {
			c.notify(NoticeError, err.Error())
			return nil, err
		}
	}
	release, ok := c.guard.TryAcquire(key)
	if !ok {
		return nil, catalog.ErrInFlight
	}
	return release, nil
}

// finish applies a successful result to the local collection unless the
// view was closed meanwhile. Before a Load has succeeded there is no
// collection to patch, so the state is left for the next Load.
func (c *Controller) finish(action string, err error, apply func(), success string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.notifyLocked(NoticeError, action+" failed: "+err.Error())
		return err
	}
	if c.state.Loaded() {
		apply()
	}
	c.notifyLocked(NoticeSuccess, success)
	return nil
}

func (c *Controller) notify(level NoticeLevel, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyLocked(level, text)
}

func (c *Controller) notifyLocked(level NoticeLevel, text string) {
	c.notices = append(c.notices, Notice{Level: level, Text: text})
}

// clearErrorsLocked drops error notices left by earlier attempts.
func (c *Controller) clearErrorsLocked() {
	kept := c.notices[:0]
	for _, n := range c.notices {
		if n.Level != NoticeError {
			kept = append(kept, n)
		}
	}
	c.notices = kept
}

func (c *Controller) actor() string {
	if c.sess.UserID != 0 {
		return strconv.FormatInt(c.sess.UserID, 10)
	}
	return c.sess.Username
}

func bookKey(id int64) string {
	return "book:" + strconv.FormatInt(id, 10)
}
