// Command shopctl is a terminal storefront and admin tool for the catalog service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/jewel-storefront/internal/cart"
	"github.com/example/jewel-storefront/internal/client"
	"github.com/example/jewel-storefront/internal/config"
)

const usage = `usage: shopctl [-api URL] [-cart-dir DIR] [-token TOKEN] <command> [args]

storefront:
  products [-q TEXT] [-category C] [-min P] [-max P] [-sort KEY]
  show <id>
  buy <id>
  slideshow <id> [-advances N]
  cart show | add <id> [-qty N] | remove <id> | adjust <id> <delta> | clear | checkout

admin:
  admin login -email E -password P
  admin create|update [<id>] -name N -price P -category C [-image URL] [-images a,b] [-description D]
  admin delete <id>
  admin upload <file>...
  admin hash-password <password>
`

var errUsage = errors.New("invalid usage")

type app struct {
	cfg     *config.Config
	out     io.Writer
	apiBase string
	api     *client.Client
	cart    *cart.Manager
	token   string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("[shopctl] ")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, config.Load(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	apiURL := fs.String("api", cfg.ShopAPIURL, "catalog service base URL")
	cartDir := fs.String("cart-dir", "", "directory holding the cart (default: user config dir)")
	token := fs.String("token", os.Getenv("SHOP_TOKEN"), "admin access token")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	dir := *cartDir
	if dir == "" {
		d, err := cart.DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}

	a := &app{
		cfg:     cfg,
		out:     out,
		apiBase: strings.TrimRight(*apiURL, "/"),
		api:     client.New(*apiURL, nil),
		cart:    cart.NewManager(cart.NewFileStorage(dir)),
		token:   *token,
	}
	a.cart.Hydrate()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "products":
		return a.products(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "buy":
		return a.buy(ctx, rest)
	case "slideshow":
		return a.slideshow(ctx, rest)
	case "cart":
		return a.cartCmd(ctx, rest)
	case "admin":
		return a.admin(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
