package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/grievance-api/internal/bootstrap"
	"github.com/noah-isme/grievance-api/internal/models"
	"github.com/noah-isme/grievance-api/pkg/config"
	"github.com/noah-isme/grievance-api/pkg/logger"
)

type cliContext struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *models.DepartmentRegistry
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cli := &cliContext{registry: models.DefaultDepartmentRegistry()}

	root := &cobra.Command{
		Use:           "grievancectl",
		Short:         "Operate the grievance engine: migrations, reminder scans, classification and backfills",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cli.cfg, cli.logger = cfg, logr
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli.logger != nil {
				_ = cli.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newMigrateCommand(cli),
		newRemindCommand(cli),
		newClassifyCommand(cli),
		newBackfillCommand(cli),
	)
	return root
}

// open connects storage and builds services without migrating on boot.
func (c *cliContext) open(ctx context.Context) (*bootstrap.Backend, *bootstrap.Services, error) {
	cfg := *c.cfg
	cfg.Database.MigrateOnBoot = false
	backend, err := bootstrap.OpenBackend(ctx, &cfg, c.registry, c.logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := bootstrap.BuildServices(&cfg, c.registry, backend.Stores, nil, nil, c.logger)
	if err != nil {
		_ = backend.Stores.Close(ctx)
		return nil, nil, err
	}
	return backend, svc, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
