package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/catalog"
	"bookstore/pkg/models"
)

var books = []models.Book{
	{ID: 1, Title: "Dune", Author: "Herbert", Category: "Fantasy"},
	{ID: 2, Title: "Emma", Author: "Austen", Category: "Classic"},
}

type recorded struct {
	query string
	auth  string
	body  map[string]any
}

func newServer(t *testing.T) (*Client, *recorded) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := &recorded{}

	r := gin.New()
	r.GET("/books", func(c *gin.Context) {
		rec.query = c.Request.URL.RawQuery
		c.JSON(http.StatusOK, books)
	})
	r.GET("/books/:id", func(c *gin.Context) {
		if c.Param("id") == "1" {
			c.JSON(http.StatusOK, books[0])
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.POST("/books", func(c *gin.Context) {
		rec.auth = c.GetHeader("Authorization")
		_ = c.ShouldBindJSON(&rec.body)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": gin.H{"title": "title is required"},
		})
	})
	r.PUT("/books/:id", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": catalog.ErrInFlight.Error()})
	})
	r.DELETE("/books/:id", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required", "action": "delete book"})
	})
	r.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, []string{"Fantasy", "Classic"})
	})
	r.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	})
	r.GET("/auth/me", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL), rec
}

func TestListBooksEncodesQuery(t *testing.T) {
	c, rec := newServer(t)
	ctx := context.Background()

	got, err := c.ListBooks(ctx, catalog.ParseQuery("em", ""))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "q=em", rec.query)

	_, err = c.ListBooks(ctx, catalog.ParseQuery("", "Fantasy"))
	require.NoError(t, err)
	assert.Equal(t, "category=Fantasy", rec.query)

	_, err = c.ListBooks(ctx, catalog.ParseQuery("", ""))
	require.NoError(t, err)
	assert.Empty(t, rec.query)
}

func TestGetBookNotFound(t *testing.T) {
	c, _ := newServer(t)

	b, err := c.GetBook(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)

	_, err = c.GetBook(context.Background(), 7)
	var nf *catalog.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(7), nf.ID)
}

func TestValidationErrorMapping(t *testing.T) {
	c, rec := newServer(t)
	authed := c.WithAuth("tok", models.RoleAdmin)

	_, err := authed.CreateBook(context.Background(), catalog.BookDraft{Author: "x"})
	var ve *catalog.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title is required", ve.Fields["title"])
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, "x", rec.body["author"])

	assert.Empty(t, c.Token, "WithAuth must not modify the receiver")
}

func TestForbiddenMapping(t *testing.T) {
	c, _ := newServer(t)

	err := c.WithAuth("tok", models.RoleUser).DeleteBook(context.Background(), 1)
	var ae *catalog.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "delete book", ae.Action)
	assert.Equal(t, models.RoleUser, ae.Role)
}

func TestConflictWrapsInFlight(t *testing.T) {
	c, _ := newServer(t)

	_, err := c.UpdateBook(context.Background(), 1, catalog.BookDraft{})
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusConflict, ne.StatusCode)
	assert.True(t, errors.Is(err, catalog.ErrInFlight))
}

func TestNon2xxIsNetworkError(t *testing.T) {
	c, _ := newServer(t)

	_, err := c.Login(context.Background(), "a@b.c", "nope")
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusUnauthorized, ne.StatusCode)
	assert.Contains(t, err.Error(), "invalid credentials")

	_, err = c.Me(context.Background())
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
	assert.Contains(t, err.Error(), "boom")
}

func TestUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListBooks(context.Background(), catalog.ParseQuery("", ""))
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Zero(t, ne.StatusCode)
	assert.Equal(t, "list books", ne.Op)
}

func TestCategories(t *testing.T) {
	c, _ := newServer(t)
	got, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "Classic"}, got)
}

func TestAuthResultDecodes(t *testing.T) {
	var res AuthResult
	require.NoError(t, json.Unmarshal([]byte(`{"user":{"id":3,"username":"bob","role":"user"},"token":"t","expires_at":"2026-10-17T00:00:00Z"}`), &res))
	assert.Equal(t, int64(3), res.User.ID)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.Equal(t, "t", res.Token)
}
