package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/example/jewel-storefront/internal/auth"
	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/domain/product"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the catalog service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// Client talks to the catalog service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, "", &p)
	return p, err
}

// Login exchanges the admin credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.TokenPair{}, err
	}
	var pair auth.TokenPair
	err = c.do(ctx, http.MethodPost, "/api/admin/login", body, "application/json", &pair)
	return pair, err
}

func (c *Client) CreateProduct(ctx context.Context, in product.Input) (catalog.Product, error) {
	body, err := jsonBody(in)
	if err != nil {
		return catalog.Product{}, err
	}
	var p catalog.Product
	err = c.do(ctx, http.MethodPost, "/api/admin/products", body, "application/json", &p)
	return p, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in product.Input) (catalog.Product, error) {
	body, err := jsonBody(in)
	if err != nil {
		return catalog.Product{}, err
	}
	var p catalog.Product
	err = c.do(ctx, http.MethodPut, "/api/admin/products/"+url.PathEscape(id), body, "application/json", &p)
	return p, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/products/"+url.PathEscape(id), nil, "", nil)
}

// UploadFile is one image in an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UploadImages sends files in one multipart request and returns their public URLs.
func (c *Client) UploadImages(ctx context.Context, files []UploadFile) ([]string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp struct {
		URLs []string `json:"urls"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return resp.URLs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
