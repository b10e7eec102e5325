package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDoer struct {
	resp     *http.Response
	err      error
	Requests []*http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.Requests = append(s.Requests, req)
	return s.resp, s.err
}

func imageResponse(status int, contentType, body string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

// ============================================
// Allow-list Tests
// ============================================

func TestProxy_Allowed(t *testing.T) {
	p := NewProxy(&stubDoer{}, "https://images.jewels.example.com")

	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://images.jewels.example.com/products/a.jpg", true},
		{"https://pub-123.r2.dev/a.jpg", true},
		{"https://acct.r2.cloudflarestorage.com/bucket/a.jpg", true},
		{"https://evil.example.com/a.jpg", false},
		{"https://r2.dev.evil.com/a.jpg", false},
		{"ftp://pub-123.r2.dev/a.jpg", false},
		{"/relative/a.jpg", false},
		{"http://169.254.169.254/latest/meta-data", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.allowed, p.Allowed(tt.url))
		})
	}
}

// ============================================
// Fetch Tests
// ============================================

func TestProxy_Fetch_Success(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	p := NewProxy(upstream.Client(), upstream.URL)

	img, err := p.Fetch(context.Background(), upstream.URL+"/a.png")

	require.NoError(t, err)
	defer img.Body.Close()
	assert.Equal(t, "image/png", img.ContentType)
	body, _ := io.ReadAll(img.Body)
	assert.Equal(t, "png-bytes", string(body))
}

func TestProxy_Fetch_DefaultContentType(t *testing.T) {
	doer := &stubDoer{resp: imageResponse(http.StatusOK, "", "raw")}
	p := NewProxy(doer, "")

	img, err := p.Fetch(context.Background(), "https://pub-1.r2.dev/a")

	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, img.ContentType)
}

func TestProxy_Fetch_Errors(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		_, err := NewProxy(&stubDoer{}, "").Fetch(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingURL)
	})

	t.Run("host not allowed", func(t *testing.T) {
		doer := &stubDoer{}
		_, err := NewProxy(doer, "").Fetch(context.Background(), "https://evil.example.com/a.jpg")
		assert.ErrorIs(t, err, ErrHostNotAllowed)
		assert.Empty(t, doer.Requests)
	})

	t.Run("upstream status", func(t *testing.T) {
		doer := &stubDoer{resp: imageResponse(http.StatusNotFound, "text/plain", "nope")}
		_, err := NewProxy(doer, "").Fetch(context.Background(), "https://pub-1.r2.dev/a.jpg")

		assert.ErrorIs(t, err, ErrUpstream)
		var upErr *UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusNotFound, upErr.StatusCode)
	})

	t.Run("transport error", func(t *testing.T) {
		doer := &stubDoer{err: errors.New("dial tcp: timeout")}
		_, err := NewProxy(doer, "").Fetch(context.Background(), "https://pub-1.r2.dev/a.jpg")
		assert.ErrorContains(t, err, "timeout")
	})
}

// ============================================
// ProxyURL Tests
// ============================================

func TestProxyURL(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"/placeholder.jpg", "/placeholder.jpg"},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"https://pub-1.r2.dev/products/a.jpg", "/api/image-proxy?url=https%3A%2F%2Fpub-1.r2.dev%2Fproducts%2Fa.jpg"},
		{"https://acct.r2.cloudflarestorage.com/b/a.jpg", "/api/image-proxy?url=https%3A%2F%2Facct.r2.cloudflarestorage.com%2Fb%2Fa.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProxyURL(tt.in))
		})
	}
}
