package carousel

import (
	"net/url"
	"path"
	"strings"
)

type Kind int

const (
	KindStill Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "still"
}

var videoExtensions = []string{".mp4", ".webm", ".mov", ".m4v"}

// Slide is one entry of a carousel.
type Slide struct {
	URL  string
	Kind Kind
}

// IsVideo reports whether the URL path ends in a known video extension.
// Query strings and fragments are ignored.
func IsVideo(raw string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	for _, v := range videoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// NewSlides classifies each URL, keeping order. Empty URLs are skipped.
func NewSlides(urls []string) []Slide {
	slides := make([]Slide, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		kind := KindStill
		if IsVideo(u) {
			kind = KindVideo
		}
		slides = append(slides, Slide{URL: u, Kind: kind})
	}
	return slides
}
