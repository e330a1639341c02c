package books

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/internal/auth"
	"bookstore/internal/catalog"
	"bookstore/internal/inflight"
	"bookstore/internal/sync"
	"bookstore/pkg/models"
)

const defaultFeaturedLimit = 4

// Publisher receives catalog events; *sync.Hub implements it.
type Publisher interface {
	Publish(ev sync.CatalogEvent) sync.CatalogEvent
}

type Handler struct {
	Repo       *Repo
	Events     Publisher
	Guard      *inflight.Guard
	Categories []string
	Now        func() time.Time
}

func NewHandler(repo *Repo, events Publisher, categories []string) *Handler {
	return &Handler{
		Repo:       repo,
		Events:     events,
		Guard:      inflight.NewGuard(),
		Categories: categories,
		Now:        time.Now,
	}
}

// RegisterRoutes mounts /books. Reads are public; every mutation passes
// authn and then the admin gate before reaching the handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	rg.GET("", h.list)              // GET /books?q=&category=
	rg.GET("/featured", h.featured) // GET /books/featured?limit=
	rg.GET("/:id", h.getByID)       // GET /books/:id
	rg.POST("", authn, auth.RequireAdmin("create book"), h.create)
	rg.PUT("/:id", authn, auth.RequireAdmin("update book"), h.update)
	rg.DELETE("/:id", authn, auth.RequireAdmin("delete book"), h.remove)
}

func (h *Handler) RegisterCategoryRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.categories)
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.Repo.List(c.Request.Context())
	if err != nil {
		log.Printf("[books] list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	q := catalog.ParseQuery(c.Query("q"), c.Query("category"))
	c.JSON(http.StatusOK, q.Apply(all))
}

func (h *Handler) featured(c *gin.Context) {
	all, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, catalog.Featured(all, parseInt(c.Query("limit"), defaultFeaturedLimit)))
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	b, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.Categories)
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	draft, ok := h.bindDraft(c)
	if !ok {
		return
	}

	release, ok := h.acquire(c, fmt.Sprintf("book:create:%d", claims.UserID))
	if !ok {
		return
	}
	defer release()

	created, err := h.Repo.Create(c.Request.Context(), draft.Book(0))
	if err != nil || created == nil {
		log.Printf("[books] create: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.publish(sync.BookCreated, created.ID, created, claims.Username)
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := bookID(c)
	if !ok {
		return
	}

	draft, ok := h.bindDraft(c)
	if !ok {
		return
	}

	release, ok := h.acquire(c, fmt.Sprintf("book:%d", id))
	if !ok {
		return
	}
	defer release()

	updated, err := h.Repo.Update(c.Request.Context(), draft.Book(id))
	if err != nil {
		log.Printf("[books] update %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.publish(sync.BookUpdated, id, updated, claims.Username)
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := bookID(c)
	if !ok {
		return
	}

	release, ok := h.acquire(c, fmt.Sprintf("book:%d", id))
	if !ok {
		return
	}
	defer release()

	deleted, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		log.Printf("[books] delete %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.publish(sync.BookDeleted, id, nil, claims.Username)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) bindDraft(c *gin.Context) (catalog.BookDraft, bool) {
	var d catalog.BookDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return d, false
	}
	if errs := catalog.Validate(d, h.Categories, h.Now()); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": errs})
		return d, false
	}
	return d, true
}

func (h *Handler) acquire(c *gin.Context, key string) (func(), bool) {
	release, ok := h.Guard.TryAcquire(key)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": catalog.ErrInFlight.Error()})
		return nil, false
	}
	return release, true
}

// publish runs while the action's in-flight marker is held and before the
// response is written, so subscribers see events in mutation order.
func (h *Handler) publish(typ string, id int64, b *models.Book, by string) {
	if h.Events == nil {
		return
	}
	h.Events.Publish(sync.CatalogEvent{
		Type:   typ,
		BookID: id,
		Book:   b,
		By:     by,
		At:     h.Now().UTC(),
	})
}

func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
