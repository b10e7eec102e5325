package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"

	"github.com/example/jewel-storefront/internal/carousel"
	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/checkout"
	"github.com/example/jewel-storefront/internal/client"
	"github.com/example/jewel-storefront/internal/infrastructure/objectstore"
)

func (a *app) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products")
	search := fs.String("q", "", "search text")
	category := fs.String("category", catalog.CategoryAll, "category filter")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	sort := fs.String("sort", string(catalog.SortNewest), "newest, price-asc, price-desc, name-asc or name-desc")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	criteria := catalog.ParseCriteria(url.Values{
		"q":        {*search},
		"category": {*category},
		"min":      {*minPrice},
		"max":      {*maxPrice},
		"sort":     {*sort},
	})

	loader := client.NewLoader(a.api)
	_, loadErr := loader.Load(ctx)
	state, visible := loader.View(criteria)

	switch state {
	case catalog.ViewFailed:
		return fmt.Errorf("failed to load products: %w", loadErr)
	case catalog.ViewEmptyCatalog:
		fmt.Fprintln(a.out, "No products available yet.")
	case catalog.ViewNoMatches:
		fmt.Fprintln(a.out, "No products match your filters.")
	default:
		for _, p := range visible {
			fmt.Fprintf(a.out, "%s\t%s\t%s\t₹%s\n", p.ID, p.Name, p.Category, p.Price.String())
		}
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show needs a product id", errUsage)
	}
	p, err := a.fetchProduct(ctx, args[0])
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

func (a *app) buy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: buy needs a product id", errUsage)
	}
	p, err := a.fetchProduct(ctx, args[0])
	if err != nil {
		return err
	}
	link, err := a.composer().BuyNow(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}

// slideshow prints the gallery as the carousel advances. It stops after the
// requested number of slide changes or when ctx is cancelled.
func (a *app) slideshow(ctx context.Context, args []string) error {
	fs := newFlagSet("slideshow")
	advances := fs.Int("advances", 0, "slide changes to show before exiting (default: one full cycle)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: slideshow needs a product id", errUsage)
	}
	p, err := a.fetchProduct(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	slides := carousel.NewSlides(p.Gallery())
	if len(slides) == 0 {
		fmt.Fprintln(a.out, "No images for this product.")
		return nil
	}
	a.printSlide(0, slides[0])
	if len(slides) == 1 {
		return nil
	}

	want := *advances
	if want <= 0 {
		want = len(slides)
	}

	sched := carousel.NewScheduler(slides, a.cfg.CarouselInterval, carousel.RealClock(), carousel.NopMedia{})
	defer sched.Close()

	changes := make(chan int, want)
	unsubscribe := sched.Subscribe(func(i int) {
		select {
		case changes <- i:
		default:
		}
	})
	defer unsubscribe()
	sched.Start()

	for seen := 0; seen < want; seen++ {
		select {
		case <-ctx.Done():
			return nil
		case i := <-changes:
			a.printSlide(i, slides[i])
		}
	}
	return nil
}

func (a *app) fetchProduct(ctx context.Context, id string) (catalog.Product, error) {
	p, err := a.api.GetProduct(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return catalog.Product{}, fmt.Errorf("product %s not found", id)
	}
	return p, err
}

func (a *app) composer() *checkout.Composer {
	return checkout.NewComposer(a.cfg.WhatsAppPhoneNumber, a.cfg.WhatsAppMessage, a.cfg.StorefrontBaseURL)
}

func (a *app) printProduct(p catalog.Product) {
	fmt.Fprintf(a.out, "%s\n₹%s · %s\n", p.Name, p.Price.String(), p.Category)
	if p.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", p.Description)
	}
	gallery := p.Gallery()
	if len(gallery) > 0 {
		fmt.Fprintln(a.out)
	}
	for i, img := range gallery {
		fmt.Fprintf(a.out, "  [%d] %s\n", i+1, a.imageURL(img))
	}
}

func (a *app) printSlide(i int, s carousel.Slide) {
	fmt.Fprintf(a.out, "slide %d (%s): %s\n", i+1, s.Kind, a.imageURL(s.URL))
}

// imageURL routes bucket images through the service's image proxy.
func (a *app) imageURL(raw string) string {
	if proxied := objectstore.ProxyURL(raw); proxied != raw {
		return a.apiBase + proxied
	}
	return raw
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
