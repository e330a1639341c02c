// Package client talks to the catalog API over HTTP and maps failures onto
// the catalog error types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/catalog"
	"bookstore/pkg/models"
)

const DefaultBaseURL = "http://localhost:8080"

type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Token and Role come from the caller's session. Role only labels
	// AuthorizationErrors; the server decides what the token may do.
	Token string
	Role  models.Role
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithAuth returns a copy of c that sends token as a bearer credential.
func (c *Client) WithAuth(token string, role models.Role) *Client {
	cp := *c
	cp.Token = token
	cp.Role = role
	return &cp
}

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
}

type apiError struct {
	Error  string              `json:"error"`
	Action string              `json:"action"`
	Fields catalog.FieldErrors `json:"fields"`
}

func (c *Client) ListBooks(ctx context.Context, q catalog.Query) ([]models.Book, error) {
	v := url.Values{}
	if q.Term != "" {
		v.Set("q", q.Term)
	}
	if q.Category != "" && q.Category != catalog.AllCategories {
		v.Set("category", q.Category)
	}
	path := "/books"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out []models.Book
	if err := c.do(ctx, "list books", http.MethodGet, path, 0, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Book{}
	}
	return out, nil
}

func (c *Client) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var out models.Book
	if err := c.do(ctx, "get book", http.MethodGet, bookPath(id), id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Featured(ctx context.Context, limit int) ([]models.Book, error) {
	var out []models.Book
	path := "/books/featured?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, "featured books", http.MethodGet, path, 0, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, "list categories", http.MethodGet, "/categories", 0, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBook(ctx context.Context, d catalog.BookDraft) (*models.Book, error) {
	var out models.Book
	if err := c.do(ctx, "create book", http.MethodPost, "/books", 0, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int64, d catalog.BookDraft) (*models.Book, error) {
	var out models.Book
	if err := c.do(ctx, "update book", http.MethodPut, bookPath(id), id, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, "delete book", http.MethodDelete, bookPath(id), id, nil, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	payload := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", 0, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", 0, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", 0, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, "whoami", http.MethodGet, "/auth/me", 0, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.do(ctx, "change password", http.MethodPost, "/auth/change-password", 0, payload, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, "list users", http.MethodGet, "/users", 0, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func bookPath(id int64) string {
	return "/books/" + strconv.FormatInt(id, 10)
}

// do sends one request. id is the book the request targets (0 for none)
// and turns a 404 into a NotFoundError.
func (c *Client) do(ctx context.Context, op, method, path string, id int64, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &catalog.NetworkError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &catalog.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &catalog.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 300 {
		return c.mapError(op, id, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &catalog.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) mapError(op string, id int64, status int, data []byte) error {
	var ae apiError
	_ = json.Unmarshal(data, &ae)

	switch {
	case status == http.StatusNotFound && id > 0:
		return &catalog.NotFoundError{ID: id}
	case status == http.StatusForbidden:
		action := ae.Action
		if action == "" {
			action = op
		}
		return &catalog.AuthorizationError{Action: action, Role: c.Role}
	case status == http.StatusBadRequest && len(ae.Fields) > 0:
		return &catalog.ValidationError{Fields: ae.Fields}
	}

	msg := strings.TrimSpace(ae.Error)
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	var cause error = errors.New(msg)
	if status == http.StatusConflict && msg == catalog.ErrInFlight.Error() {
		cause = catalog.ErrInFlight
	}
	return &catalog.NetworkError{Op: op, StatusCode: status, Err: cause}
}
