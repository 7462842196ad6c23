package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/grievance-api/internal/bootstrap"
	"github.com/noah-isme/grievance-api/internal/service"
	"github.com/noah-isme/grievance-api/pkg/config"
	"github.com/noah-isme/grievance-api/pkg/database"
)

func newMigrateCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back Postgres schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePostgres(cli.cfg); err != nil {
				return err
			}
			return bootstrap.Migrate(cli.cfg, cli.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePostgres(cli.cfg); err != nil {
				return err
			}
			migrator, err := database.NewMigrator(database.PostgresURL(cli.cfg.Database), cli.logger)
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck
			return migrator.Down(steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func requirePostgres(cfg *config.Config) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to the postgres driver, DB_DRIVER is %q", cfg.Database.Driver)
	}
	return nil
}

func newRemindCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remind [tracking-id]",
		Short: "Run one reminder scan, or remind about a single grievance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, svc, err := cli.open(ctx)
			if err != nil {
				return err
			}
			defer backend.Stores.Close(ctx) //nolint:errcheck
			defer svc.Stop(ctx)             //nolint:errcheck

			if len(args) == 1 {
				resp, err := svc.Reminders.SendReminder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			}
			sent, err := svc.Scheduler.RunOnce(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"reminders_sent": sent})
		},
	}
}

func newClassifyCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <petition text>",
		Short: "Resolve the department for petition text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := *cli.cfg
			cfg.Database.Driver = config.DriverMemory
			local := *cli
			local.cfg = &cfg
			backend, svc, err := local.open(ctx)
			if err != nil {
				return err
			}
			defer backend.Stores.Close(ctx) //nolint:errcheck
			defer svc.Stop(ctx)             //nolint:errcheck

			text := strings.Join(args, " ")
			dept, err := svc.Classification.Classify(ctx, text)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"department": dept,
				"priority":   string(service.DetectPriority(text)),
			})
		},
	}
}

func newBackfillCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-tracking-ids",
		Short: "Assign tracking IDs to legacy MongoDB petitions, reserve existing ones and normalise legacy fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.cfg.Database.Driver != config.DriverMongo {
				return errors.New("tracking id backfill requires DB_DRIVER=mongo")
			}
			ctx := cmd.Context()
			backend, svc, err := cli.open(ctx)
			if err != nil {
				return err
			}
			defer backend.Stores.Close(ctx) //nolint:errcheck
			defer svc.Stop(ctx)             //nolint:errcheck

			results, err := backend.Mongo.BackfillTrackingIDs(ctx, cli.registry, svc.TrackingIDs.Allocate)
			if err != nil {
				return err
			}
			assigned, reserved, normalised := 0, 0, 0
			for _, r := range results {
				assigned += r.Assigned
				reserved += r.Reserved
				normalised += r.Normalised
			}
			return printJSON(cmd, map[string]interface{}{
				"assigned":    assigned,
				"reserved":    reserved,
				"normalised":  normalised,
				"departments": results,
			})
		},
	}
}
