package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ProxyPath          = "/api/image-proxy"
	DefaultContentType = "image/jpeg"
	ProxyCacheControl  = "public, max-age=86400"
)

var (
	ErrMissingURL     = errors.New("image URL required")
	ErrHostNotAllowed = errors.New("image host not allowed")
	ErrUpstream       = errors.New("failed to fetch image")
)

// r2Suffixes are the Cloudflare R2 host suffixes the proxy may fetch from.
var r2Suffixes = []string{".r2.dev", ".r2.cloudflarestorage.com"}

// UpstreamError carries the status the bucket answered with.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", ErrUpstream, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Proxy re-serves bucket images from the storefront origin.
type Proxy struct {
	client     HTTPDoer
	bucketHost string
}

// NewProxy allows the host of publicBase plus the R2 hosts.
func NewProxy(client HTTPDoer, publicBase string) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	var host string
	if u, err := url.Parse(publicBase); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	return &Proxy{client: client, bucketHost: host}
}

// Allowed reports whether raw points at a host the proxy may fetch from.
func (p *Proxy) Allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if p.bucketHost != "" && host == p.bucketHost {
		return true
	}
	return isR2Host(host)
}

// Image is an upstream image ready to stream. Callers must close Body.
type Image struct {
	Body        io.ReadCloser
	ContentType string
}

func (p *Proxy) Fetch(ctx context.Context, raw string) (*Image, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingURL
	}
	if !p.Allowed(raw) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", raw, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Image{Body: resp.Body, ContentType: contentType}, nil
}

// ProxyURL rewrites R2 image URLs to go through the image proxy. Empty,
// relative and data URLs, and images on any other host, are returned as is.
func ProxyURL(imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "/") || strings.HasPrefix(imageURL, "data:") {
		return imageURL
	}
	u, err := url.Parse(imageURL)
	if err != nil || !isR2Host(strings.ToLower(u.Hostname())) {
		return imageURL
	}
	return ProxyPath + "?url=" + url.QueryEscape(imageURL)
}

func isR2Host(host string) bool {
	for _, suffix := range r2Suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
