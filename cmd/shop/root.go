package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dummyshop/storefront/internal/app"
	"dummyshop/storefront/internal/config"
	"dummyshop/storefront/internal/observability"
)

type cli struct {
	verbose  bool
	logger   *zap.Logger
	services *app.Services
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "shop",
		Short: "Browse the demo catalog and manage your session and cart",
		Long: `shop talks to the demo commerce API using the same configuration as the
gateway (environment variables or CONFIG_FILE).

The signed-in user is persisted in the configured storage backend, so a
login survives between invocations.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.teardown()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.whoamiCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.availableCmd(),
		c.categoriesCmd(),
		c.productsCmd(),
		c.productCmd(),
		c.cartCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if c.verbose {
		level = "debug"
	}
	c.logger, err = observability.NewLogger(level)
	if err != nil {
		return err
	}
	c.services, err = app.NewServices(cmd.Context(), cfg, c.logger)
	if err != nil {
		return err
	}
	return nil
}

func (c *cli) teardown() error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.services == nil {
		return nil
	}
	err := c.services.Close()
	c.services = nil
	return err
}
