package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/config"
	"github.com/alextanhongpin/go-fitmate/infra"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

type cli struct {
	configPath string
	owner      string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "fitmate",
		Short:        "Friend list service for the fitmate goal tracker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			if c.logger == nil {
				logger, err := infra.NewLogger(cfg.Log, c.verbose)
				if err != nil {
					return err
				}
				c.logger = logger
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "fitmate.yml", "path to the config file")
	root.PersistentFlags().StringVar(&c.owner, "owner", "", "whose friend list to use (empty for the single-profile list)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.newServeCmd(), c.newFriendsCmd())

	return root
}

func (c *cli) directory() *usecase.Directory {
	return usecase.NewDirectory(c.cfg.Directory...)
}

func (c *cli) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
