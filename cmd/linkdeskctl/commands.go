package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/sifan077/LinkDesk/internal/app/importer"
	"github.com/sifan077/LinkDesk/internal/app/model"
	infraPostgres "github.com/sifan077/LinkDesk/internal/infra/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the urls and settings tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := infraPostgres.AutoMigrate(cmd.Context(), e.db, infraPostgres.Models()...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations complete")
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Submit every URL listed in a YAML file as pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.Load(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.store(cmd.Context())
			if err != nil {
				return err
			}

			res, err := importer.Run(cmd.Context(), store, f, e.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d, skipped %d, failed %d\n", len(res.Created), res.Skipped, len(res.Failed))
			for _, fail := range res.Failed {
				fmt.Fprintf(out, "  #%d %s: %v\n", fail.Position, fail.Original, fail.Err)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d entries failed", len(res.Failed))
			}
			return nil
		},
	}
}

func newURLsCmd() *cobra.Command {
	var status string
	var domain string

	cmd := &cobra.Command{
		Use:   "urls",
		Short: "List submitted URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.store(cmd.Context())
			if err != nil {
				return err
			}

			var records []model.URLRecord
			switch {
			case status != "":
				records, err = store.ListByStatus(cmd.Context(), model.Status(status))
				if err != nil {
					return err
				}
			case domain != "":
				records = store.URLsByDomain(domain)
			default:
				records = store.URLs()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tVISITS\tERRORS\tURL")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", rec.ID, rec.Status, rec.Visits, len(rec.ErrorMessages), rec.Original)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only list URLs in this state (pending, approved, rejected)")
	cmd.Flags().StringVar(&domain, "domain", "", "only list URLs on this hostname")
	return cmd
}

func newDomainsCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Show the domain order",
		Long: "Show the persisted domain order, creating it from the submitted URLs when missing.\n" +
			"With --rebuild the order is replaced by the hostnames of the submitted URLs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.store(cmd.Context())
			if err != nil {
				return err
			}

			if rebuild {
				if err := store.SaveDomainOrder(cmd.Context(), store.UniqueDomains()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for i, d := range store.DomainOrder() {
				fmt.Fprintf(out, "%3d  %s\n", i+1, d)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "replace the order with the hostnames currently in use")
	return cmd
}
