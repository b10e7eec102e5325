package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/jewel-storefront/internal/checkout"
)

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.showCart()
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		return a.showCart()
	case "add":
		return a.addToCart(ctx, rest)
	case "remove":
		if len(rest) != 1 {
			return fmt.Errorf("%w: cart remove needs a product id", errUsage)
		}
		a.cart.Remove(rest[0])
		return a.showCart()
	case "adjust":
		if len(rest) != 2 {
			return fmt.Errorf("%w: cart adjust needs a product id and a delta", errUsage)
		}
		delta, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("%w: delta must be an integer", errUsage)
		}
		a.cart.AdjustQuantity(rest[0], delta)
		return a.showCart()
	case "clear":
		a.cart.Clear()
		fmt.Fprintln(a.out, "Cart cleared.")
		return nil
	case "checkout":
		return a.checkout()
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, sub)
	}
}

func (a *app) addToCart(ctx context.Context, args []string) error {
	fs := newFlagSet("cart add")
	qty := fs.Int("qty", 1, "quantity to add")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: cart add needs a product id", errUsage)
	}
	p, err := a.fetchProduct(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := a.cart.Add(p, *qty); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d × %s to cart.\n", *qty, p.Name)
	return nil
}

func (a *app) showCart() error {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}
	for _, l := range lines {
		fmt.Fprintf(a.out, "%s\t%s\t%d × ₹%s\t₹%s\n", l.ProductID, l.Name, l.Quantity, l.Price.String(), l.Subtotal().String())
	}
	fmt.Fprintf(a.out, "Products: %d\tTotal: ₹%s\n", a.cart.Count(), a.cart.Total().String())
	return nil
}

// checkout prints the WhatsApp enquiry link. The cart is kept so the shopper
// can come back to it.
func (a *app) checkout() error {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		return fmt.Errorf("cart is empty")
	}
	link, err := a.composer().Link(checkout.ItemsFromCart(lines))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, link)
	return nil
}
