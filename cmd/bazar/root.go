package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/surajkumarsah0/bazar-frontend/internal/config"
)

const appName = "bazar"

// cliはフラグと、PersistentPreRunEで組み立てた app を持つ
type cli struct {
	configPath string
	logLevel   string

	stderr io.Writer
	app    *app
}

// runはコマンドを実行し、開いた保存領域を必ず閉じる
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Storefront client for the bazar shop",
		Long: `bazar browses the shop catalogue, keeps a local cart,
places orders and manages the store for admin accounts.

The cart and sign-in token are kept in local storage between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.homeCmd(),
		c.productsCmd(),
		c.categoriesCmd(),
		c.cartCmd(),
		c.buyCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.adminCmd(),
	)
	return cmd
}

func (c *cli) setup(ctx context.Context) error {
	var (
		cfg config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	log, err := newLogger(cfg.LogLevel, c.stderr)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}
