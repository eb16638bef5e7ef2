package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/schema"
)

func resolveSchema(e *env, slug string) (*tenant.Tenant, error) {
	t, err := e.tenants.GetBySlug(e.ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, fmt.Errorf("tenant %q: %w", slug, err)
	}
	return t, nil
}

func newMigrateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "migrate [slug]",
		Short: "Apply pending migrations to one tenant schema or to all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if all {
				return migrateAll(e, cmd)
			}
			if len(args) != 1 {
				return errors.New("a tenant slug is required unless --all is set")
			}
			t, err := resolveSchema(e, args[0])
			if err != nil {
				return err
			}
			if err := e.manager.Migrate(e.ctx, t.SchemaName()); err != nil {
				return err
			}
			cmd.Printf("migrated %s\n", t.SchemaName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "migrate every registered tenant schema")
	return cmd
}

func migrateAll(e *env, cmd *cobra.Command) error {
	result, err := e.manager.MigrateAll(e.ctx)
	if err != nil {
		return err
	}
	cmd.Printf("migrated %d schemas, %d failed\n", result.Succeeded, result.Failed)
	for schemaName, schemaErr := range result.Errors {
		cmd.Printf("  %s: %v\n", schemaName, schemaErr)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d schemas failed to migrate", result.Failed)
	}
	return nil
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <slug>",
		Short: "Dump a tenant schema to a timestamped artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := resolveSchema(e, args[0])
			if err != nil {
				return err
			}
			artifact, err := e.manager.Backup(e.ctx, t.SchemaName())
			if err != nil {
				return err
			}
			cmd.Printf("backup written to %s\n", artifact)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <slug> <artifact>",
		Short: "Replace a tenant schema with the contents of a backup artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := resolveSchema(e, args[0])
			if err != nil {
				return err
			}
			if err := e.manager.Restore(e.ctx, t.SchemaName(), args[1]); err != nil {
				return err
			}
			cmd.Printf("restored %s from %s\n", t.SchemaName(), args[1])
			return nil
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <slug>",
		Short: "Back up and drop a suspended tenant's schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := resolveSchema(e, args[0])
			if err != nil {
				return err
			}
			if err := e.tenants.Archive(e.ctx, t.ID()); err != nil {
				return err
			}
			cmd.Printf("archived %s\n", t.Slug())
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <slug>",
		Short: "Show table count and on-disk size for a tenant schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := resolveSchema(e, args[0])
			if err != nil {
				return err
			}
			stats, err := e.manager.SchemaStats(e.ctx, t.SchemaName())
			if err != nil {
				return err
			}
			cmd.Printf("schema:      %s\n", stats.Schema)
			cmd.Printf("tables:      %d\n", stats.TableCount)
			cmd.Printf("total bytes: %d\n", stats.TotalBytes)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Back up and drop tenant schemas with no registry row",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			return cleanupOrphaned(e.ctx, e.manager, cmd)
		},
	}
}

func cleanupOrphaned(ctx context.Context, manager *schema.Manager, cmd *cobra.Command) error {
	result, err := manager.CleanupOrphaned(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("dropped %d orphaned schemas, %d failed\n", result.Succeeded, result.Failed)
	for schemaName, schemaErr := range result.Errors {
		cmd.Printf("  %s: %v\n", schemaName, schemaErr)
	}
	return nil
}
