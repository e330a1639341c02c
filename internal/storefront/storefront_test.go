package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/catalog"
	"bookstore/internal/session"
	"bookstore/pkg/models"
)

var testCategories = []string{"Fantasy", "Classic"}

// fakeStore serves an in-memory collection. When gate is non-nil every
// call blocks until it receives a value.
type fakeStore struct {
	mu      sync.Mutex
	books   []models.Book
	nextID  int64
	calls   int
	listErr error
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books: []models.Book{
			{ID: 1, Title: "Dune", Author: "Herbert", Category: "Fantasy", Description: "Spice, sand and a desert planet."},
			{ID: 2, Title: "Emma", Author: "Austen", Category: "Classic", Description: "A comedy of manners in Highbury."},
		},
		nextID: 3,
	}
}

func (f *fakeStore) wait() {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeStore) ListBooks(ctx context.Context, q catalog.Query) ([]models.Book, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return q.Apply(f.books), nil
}

func (f *fakeStore) CreateBook(ctx context.Context, d catalog.BookDraft) (*models.Book, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	b := d.Book(f.nextID)
	f.nextID++
	f.books = append(f.books, b)
	return &b, nil
}

func (f *fakeStore) UpdateBook(ctx context.Context, id int64, d catalog.BookDraft) (*models.Book, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.books {
		if f.books[i].ID == id {
			f.books[i] = d.Book(id)
			b := f.books[i]
			return &b, nil
		}
	}
	return nil, &catalog.NotFoundError{ID: id}
}

func (f *fakeStore) DeleteBook(ctx context.Context, id int64) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.books {
		if f.books[i].ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return &catalog.NotFoundError{ID: id}
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func adminSession() session.Session {
	return session.New(models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}, "tok")
}

func userSession() session.Session {
	return session.New(models.User{ID: 2, Username: "user", Role: models.RoleUser}, "tok")
}

func newController(store Store, sess session.Session) *Controller {
	c := New(store, sess, testCategories)
	c.Now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	return c
}

func ptr[T any](v T) *T { return &v }

func validDraft() catalog.BookDraft {
	return catalog.BookDraft{
		Title:       "The Hobbit",
		Author:      "Tolkien",
		Price:       ptr(12.0),
		Category:    "Fantasy",
		Description: "There and back again, a hobbit's tale.",
	}
}

func bookIDs(books []models.Book) []int64 {
	out := make([]int64, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func TestLoadAndVisible(t *testing.T) {
	c := newController(newFakeStore(), session.Guest())

	st, _ := c.State()
	assert.Equal(t, catalog.Pending, st)

	require.NoError(t, c.Load(context.Background()))
	st, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, catalog.LoadedNonEmpty, st)

	l := c.Visible(catalog.ParseQuery("em", ""))
	assert.Equal(t, []int64{2}, bookIDs(l.Books))
	assert.Equal(t, 2, l.Total)
	assert.Equal(t, "showing 1 of 2 books", l.Summary())

	l = c.Visible(catalog.ParseQuery("", "Fantasy"))
	assert.Equal(t, []int64{1}, bookIDs(l.Books))

	l = c.Visible(catalog.ParseQuery("zzz", ""))
	assert.NotNil(t, l.Books)
	assert.Empty(t, l.Books)
}

func TestLoadEmptyAndFailed(t *testing.T) {
	store := newFakeStore()
	store.books = nil
	c := newController(store, session.Guest())
	require.NoError(t, c.Load(context.Background()))
	st, _ := c.State()
	assert.Equal(t, catalog.LoadedEmpty, st)

	store.listErr = &catalog.NetworkError{Op: "list books", Err: errors.New("connection refused")}
	c = newController(store, session.Guest())
	err := c.Load(context.Background())
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	st, stErr := c.State()
	assert.Equal(t, catalog.Failed, st)
	assert.Equal(t, err, stErr)
	require.Len(t, c.Notices(), 1)
	assert.Equal(t, NoticeError, c.Notices()[0].Level)
}

func TestPermissions(t *testing.T) {
	assert.Equal(t, Permissions{true, true, true}, newController(newFakeStore(), adminSession()).Permissions())
	assert.Equal(t, Permissions{}, newController(newFakeStore(), userSession()).Permissions())
	assert.Equal(t, Permissions{}, newController(newFakeStore(), session.Guest()).Permissions())
	assert.Equal(t, Permissions{}, newController(newFakeStore(), session.Session{LoggedIn: true}).Permissions())
}

func TestUserDeleteIsBlocked(t *testing.T) {
	store := newFakeStore()
	c := newController(store, userSession())
	require.NoError(t, c.Load(context.Background()))
	callsAfterLoad := store.callCount()

	err := c.Delete(context.Background(), 1)
	var ae *catalog.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "delete book", ae.Action)
	assert.Equal(t, models.RoleUser, ae.Role)

	assert.Equal(t, callsAfterLoad, store.callCount(), "no request may reach the store")
	assert.Equal(t, []int64{1, 2}, bookIDs(c.Books()))
	assert.Len(t, store.books, 2)

	notices := c.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Contains(t, notices[0].Text, "requires admin role")
}

func TestGuestCreateIsBlocked(t *testing.T) {
	store := newFakeStore()
	c := newController(store, session.Guest())

	_, err := c.Create(context.Background(), validDraft())
	var ae *catalog.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Zero(t, store.callCount())
}

func TestValidationRunsBeforeStore(t *testing.T) {
	store := newFakeStore()
	c := newController(store, adminSession())

	d := validDraft()
	d.Title = "It"
	d.Price = ptr(0.0)
	_, err := c.Create(context.Background(), d)

	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "price")
	assert.Zero(t, store.callCount())

	_, err = c.Update(context.Background(), 1, d)
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, store.callCount())
}

func TestAdminMutations(t *testing.T) {
	store := newFakeStore()
	c := newController(store, adminSession())
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	created, err := c.Create(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
	assert.Equal(t, []int64{1, 2, 3}, bookIDs(c.Books()))

	d := validDraft()
	d.Title = "The Hobbit, Annotated"
	updated, err := c.Update(ctx, 3, d)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit, Annotated", updated.Title)
	assert.Equal(t, []int64{3}, bookIDs(c.Visible(catalog.ParseQuery("annotated", "")).Books))

	require.NoError(t, c.Delete(ctx, 3))
	assert.Equal(t, []int64{1, 2}, bookIDs(c.Books()))

	err = c.Delete(ctx, 99)
	var nf *catalog.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []int64{1, 2}, bookIDs(c.Books()))

	levels := []NoticeLevel{}
	for _, n := range c.Notices() {
		levels = append(levels, n.Level)
	}
	assert.Equal(t, []NoticeLevel{NoticeSuccess, NoticeSuccess, NoticeSuccess, NoticeError}, levels)
}

func TestDuplicateDeleteIsRejected(t *testing.T) {
	store := newFakeStore()
	c := newController(store, adminSession())
	require.NoError(t, c.Load(context.Background()))

	store.mu.Lock()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background(), 1) }()
	<-store.entered

	err := c.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, catalog.ErrInFlight)

	close(store.gate)
	require.NoError(t, <-done)
	assert.Equal(t, []int64{2}, bookIDs(c.Books()))
}

func TestLateResponseAfterCloseIsDropped(t *testing.T) {
	store := newFakeStore()
	c := newController(store, adminSession())

	store.mu.Lock()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-store.entered

	c.Close()
	close(store.gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	st, _ := c.State()
	assert.Equal(t, catalog.Pending, st)
	assert.Empty(t, c.Books())
	assert.Empty(t, c.Notices())
}

func TestStaleLoadIsDropped(t *testing.T) {
	store := newFakeStore()
	c := newController(store, session.Guest())

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.entered = make(chan struct{}, 1)
	entered := store.entered
	store.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- c.Load(context.Background()) }()
	<-entered

	store.mu.Lock()
	store.gate = nil
	store.entered = nil
	store.mu.Unlock()
	require.NoError(t, c.Load(context.Background()))

	store.mu.Lock()
	store.books = store.books[:1]
	store.mu.Unlock()
	close(gate)

	assert.ErrorIs(t, <-first, ErrClosed)
	assert.Equal(t, []int64{1, 2}, bookIDs(c.Books()))
}

func TestMutationBeforeLoadLeavesStateAlone(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	c := newController(store, adminSession())
	_, err := c.Create(ctx, validDraft())
	require.NoError(t, err)
	st, _ := c.State()
	assert.Equal(t, catalog.Pending, st)
	assert.Empty(t, c.Books())

	store = newFakeStore()
	store.listErr = &catalog.NetworkError{Op: "list books", Err: errors.New("connection refused")}
	c = newController(store, adminSession())
	require.Error(t, c.Load(ctx))
	require.NoError(t, c.Delete(ctx, 1))
	st, stErr := c.State()
	assert.Equal(t, catalog.Failed, st)
	assert.Error(t, stErr)
	assert.Zero(t, c.Visible(catalog.ParseQuery("", "")).Total)

	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, []int64{2}, bookIDs(c.Books()))
}

func TestErrorNoticesResetOnRetry(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.listErr = &catalog.NetworkError{Op: "list books", Err: errors.New("connection refused")}
	c := newController(store, userSession())

	require.Error(t, c.Load(ctx))
	require.Error(t, c.Load(ctx))
	require.Len(t, c.Notices(), 1)

	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()
	require.NoError(t, c.Load(ctx))
	assert.Empty(t, c.Notices())

	require.Error(t, c.Delete(ctx, 1))
	require.Error(t, c.Delete(ctx, 1))
	notices := c.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
}
