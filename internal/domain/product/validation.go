package product

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrTooManyImages       = fmt.Errorf("a product can have at most %d images", catalog.MaxImages)
	ErrPrimaryNotInGallery = errors.New("primary image must be one of the gallery images")
)

// Input is what an admin submits when creating or editing a product.
type Input struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
}

// Normalize trims the input, fills the gallery or primary image from the
// other when one is missing, and validates the result.
//
// A price of zero counts as missing.
func (in Input) Normalize() (Input, error) {
	out := Input{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Image:       strings.TrimSpace(in.Image),
	}
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			out.Images = append(out.Images, img)
		}
	}

	switch {
	case len(out.Images) == 0 && out.Image != "":
		out.Images = []string{out.Image}
	case out.Image == "" && len(out.Images) > 0:
		out.Image = out.Images[0]
	}

	if out.Name == "" || !out.Price.IsPositive() || out.Image == "" || out.Category == "" {
		return Input{}, ErrMissingFields
	}
	if !catalog.IsValidCategory(out.Category) {
		return Input{}, fmt.Errorf("%w: %q", ErrInvalidCategory, out.Category)
	}
	if len(out.Images) > catalog.MaxImages {
		return Input{}, ErrTooManyImages
	}
	if !slices.Contains(out.Images, out.Image) {
		return Input{}, ErrPrimaryNotInGallery
	}
	return out, nil
}

// IsValidationError reports whether err came from Normalize.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrTooManyImages) ||
		errors.Is(err, ErrPrimaryNotInGallery)
}
