package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dummyshop/storefront/internal/account"
	"dummyshop/storefront/internal/cart"
	"dummyshop/storefront/internal/catalog"
	"dummyshop/storefront/internal/domain"
)

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			u, ok := c.services.Session.User()
			if !ok {
				fmt.Fprintln(out, "anonymous")
				return nil
			}
			printUser(out, u)
			return nil
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.services.Accounts.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), "signed in as ")
			printUser(cmd.OutOrStdout(), u)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.services.Accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var in account.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.services.Accounts.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), "registered and signed in as ")
			printUser(cmd.OutOrStdout(), u)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func (c *cli) availableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available <username>",
		Short: "Check whether a username is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := c.services.Accounts.UsernameAvailable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is taken\n", args[0])
			}
			return nil
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.services.Catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME")
			for _, cat := range cats {
				fmt.Fprintf(tw, "%s\t%s\n", cat.Slug, cat.Name)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) productsCmd() *cobra.Command {
	var (
		f     catalog.Filter
		pages int
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, loading one or more pages",
		Long: `List products for a category, or for a search query. A query takes
precedence over the category. Sort orders look like title-asc or price-desc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}
			fd := catalog.NewFeed(c.services.Catalog, f)
			for i := 0; i < pages; i++ {
				if _, err := fd.Next(cmd.Context()); err != nil {
					if errors.Is(err, catalog.ErrNoMorePages) {
						break
					}
					return err
				}
			}

			out := cmd.OutOrStdout()
			products := fd.Products()
			if len(products) == 0 {
				fmt.Fprintln(out, "no products found")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Title, p.Price.StringFixed(2))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if fd.HasMore() {
				fmt.Fprintf(out, "more available: rerun with --pages %d\n", len(fd.Pages())+1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", catalog.DefaultCategory, "category slug or \"all\"")
	cmd.Flags().StringVar(&f.SortOrder, "sort", catalog.DefaultSortOrder, "sort order, field-asc or field-desc")
	cmd.Flags().StringVar(&f.Query, "query", "", "search text")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func (c *cli) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			p, err := c.services.Catalog.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", p.Title, p.ID)
			fmt.Fprintf(out, "price:    %s\n", p.Price.StringFixed(2))
			fmt.Fprintf(out, "rating:   %s\n", p.Rating.StringFixed(2))
			fmt.Fprintf(out, "category: %s\n", p.Category)
			if p.Brand != "" {
				fmt.Fprintf(out, "brand:    %s\n", p.Brand)
			}
			if p.Description != "" {
				fmt.Fprintf(out, "\n%s\n", p.Description)
			}
			if len(p.Reviews) > 0 {
				fmt.Fprintf(out, "\nreviews (%d):\n", len(p.Reviews))
				for _, r := range p.Reviews {
					fmt.Fprintf(out, "  %d/5 %s: %s\n", r.Rating, r.ReviewerName, r.Comment)
				}
			}
			return nil
		},
	}
}

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the signed-in user's cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ct, err := c.services.Cart.Current(cmd.Context())
			if err != nil {
				return cartError(err)
			}
			return printCart(cmd.OutOrStdout(), ct)
		},
	}

	set := &cobra.Command{
		Use:   "set <cart-id> <product-id> <quantity>",
		Short: "Set the quantity of a product in a cart",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, len(args))
			for i, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid number %q", a)
				}
				ids[i] = n
			}
			ct, err := c.services.Cart.SetQuantity(cmd.Context(), ids[0], ids[1], ids[2])
			if err != nil {
				return cartError(err)
			}
			return printCart(cmd.OutOrStdout(), ct)
		},
	}

	adjust := func(use, short string, up bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <product-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid product id %q", args[0])
				}
				fn := c.services.Cart.Decrement
				if up {
					fn = c.services.Cart.Increment
				}
				ct, err := fn(cmd.Context(), id)
				if err != nil {
					return cartError(err)
				}
				return printCart(cmd.OutOrStdout(), ct)
			},
		}
	}

	cmd.AddCommand(set, adjust("inc", "Add one of a product already in the cart", true), adjust("dec", "Remove one of a product in the cart", false))
	return cmd
}

func cartError(err error) error {
	if errors.Is(err, cart.ErrNotAuthenticated) {
		return fmt.Errorf("%w: run 'shop login' first", err)
	}
	return err
}

func printUser(out io.Writer, u domain.User) {
	parts := []string{u.Username, "(id " + strconv.Itoa(u.ID) + ")"}
	if u.Email != "" {
		parts = append(parts, u.Email)
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
}

func printCart(out io.Writer, ct domain.Cart) error {
	fmt.Fprintf(out, "cart #%d\n", ct.ID)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tPRICE\tTOTAL")
	for _, it := range ct.Products {
		total := it.Total.StringFixed(2)
		if it.Discounted() {
			total += " (" + it.DiscountedTotal.StringFixed(2) + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", it.ID, it.Title, it.Quantity, it.Price.StringFixed(2), total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "total %s, discounted %s, %d items\n",
		ct.Total.StringFixed(2), ct.DiscountedTotal.StringFixed(2), ct.TotalQuantity)
	return nil
}
