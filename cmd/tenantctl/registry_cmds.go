package main

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
)

func newCreateCmd() *cobra.Command {
	var name, slug, owner, domain string

	cmd := &cobra.Command{
		Use:   "create --name <name> --slug <slug> --owner <uuid>",
		Short: "Register a tenant and provision its schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" || slug == "" {
				return errors.New("--name and --slug are required")
			}
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return errors.New("--owner must be a valid uuid")
			}

			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created, err := e.tenants.Create(e.ctx, name, slug, ownerID)
			if err != nil {
				return err
			}
			if domain != "" {
				if _, err := e.tenants.BindDomain(e.ctx, created.ID(), domain, true); err != nil {
					return err
				}
			}
			cmd.Printf("created tenant %s (%s) with schema %s\n", created.Slug(), created.ID(), created.SchemaName())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&slug, "slug", "", "unique slug, also the subdomain")
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id")
	cmd.Flags().StringVar(&domain, "domain", "", "optional primary custom domain")
	return cmd
}

func newListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, closeFn, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			params := &tenant.FindParams{}
			if status != "" {
				params.Status = tenant.Status(status)
			}
			tenants, err := e.tenants.List(e.ctx, params)
			if err != nil {
				return err
			}
			for _, t := range tenants {
				cmd.Printf("%s\t%s\t%s\t%s\n", t.ID(), t.Slug(), t.Status(), t.SchemaName())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by lifecycle status")
	return cmd
}
