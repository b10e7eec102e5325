package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/jewel-storefront/internal/auth"
	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/client"
	"github.com/example/jewel-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: admin needs a subcommand", errUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "login":
		return a.login(ctx, rest)
	case "create":
		return a.saveProduct(ctx, "", rest)
	case "update":
		if len(rest) == 0 || strings.HasPrefix(rest[0], "-") {
			return fmt.Errorf("%w: admin update needs a product id", errUsage)
		}
		return a.saveProduct(ctx, rest[0], rest[1:])
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("%w: admin delete needs a product id", errUsage)
		}
		if err := a.authed().DeleteProduct(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Product deleted successfully")
		return nil
	case "upload":
		return a.upload(ctx, rest)
	case "hash-password":
		if len(rest) != 1 {
			return fmt.Errorf("%w: admin hash-password needs a password", errUsage)
		}
		hash, err := auth.HashPassword(rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, hash)
		return nil
	default:
		return fmt.Errorf("%w: unknown admin command %q", errUsage, sub)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("admin login")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", os.Getenv("SHOP_PASSWORD"), "admin password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: email and password are required", errUsage)
	}
	pair, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "export SHOP_TOKEN=%s\n", pair.AccessToken)
	return nil
}

// saveProduct creates a product when id is empty and replaces it otherwise.
func (a *app) saveProduct(ctx context.Context, id string, args []string) error {
	fs := newFlagSet("admin product")
	name := fs.String("name", "", "product name")
	price := fs.String("price", "", "price in rupees")
	category := fs.String("category", "", strings.Join(catalog.Categories, ", "))
	image := fs.String("image", "", "primary image URL")
	images := fs.String("images", "", "comma separated gallery URLs")
	description := fs.String("description", "", "description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	in := product.Input{
		Name:        *name,
		Description: *description,
		Category:    *category,
		Image:       *image,
	}
	if *price != "" {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid price %q", *price)
		}
		in.Price = d
	}
	if *images != "" {
		in.Images = strings.Split(*images, ",")
	}

	var (
		p   catalog.Product
		err error
	)
	if id == "" {
		p, err = a.authed().CreateProduct(ctx, in)
	} else {
		p, err = a.authed().UpdateProduct(ctx, id, in)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", p.ID, p.Name)
	return nil
}

func (a *app) upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: admin upload needs at least one file", errUsage)
	}
	files := make([]client.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		files = append(files, client.UploadFile{
			Name:        filepath.Base(p),
			ContentType: contentTypeFor(p),
			Body:        f,
		})
	}

	urls, err := a.authed().UploadImages(ctx, files)
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(a.out, u)
	}
	return nil
}

func (a *app) authed() *client.Client {
	return a.api.WithToken(a.token)
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
