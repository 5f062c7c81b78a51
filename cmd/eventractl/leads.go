package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eventra/dashboard/api/internal/config"
	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service"
	"github.com/eventra/dashboard/api/internal/storage"
)

func leadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Import and export leads as CSV",
	}
	cmd.AddCommand(leadsExportCmd())
	cmd.AddCommand(leadsImportCmd())
	return cmd
}

func leadsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write leads as CSV to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := eventFlag(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")

			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			var archived bytes.Buffer
			archive, _ := cmd.Flags().GetBool("archive")
			if archive {
				w = io.MultiWriter(w, &archived)
			}

			svc := leadsService(cfg, pool)
			n, err := svc.ExportLeadsCSV(cmd.Context(), w, eventID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d leads\n", n)

			if archive {
				store, err := storage.NewExportArchive(cmd.Context(), cfg.Archive)
				if err != nil {
					return err
				}
				name := svc.ExportFilename(cmd.Context(), "leads", eventID, time.Now())
				location, err := store.Upload(cmd.Context(), name, archived.Bytes())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "archived to %s\n", location)
			}
			return nil
		},
	}

	cmd.Flags().String("event", "", "Only export leads of this event id")
	cmd.Flags().StringP("out", "o", "-", "Output file, - for stdout")
	cmd.Flags().Bool("archive", false, "Also upload the export to the EXPORT_S3_BUCKET archive")

	return cmd
}

func leadsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import leads from a CSV file",
		Long: `Import leads from a CSV file with at least first_name, last_name and email columns.

Examples:
  eventractl leads import leads.csv
  eventractl leads import leads.csv --event 4f1c... --check-mx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := eventFlag(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if checkMX, _ := cmd.Flags().GetBool("check-mx"); checkMX {
				cfg.CheckEmailMX = true
			}

			summary, err := leadsService(cfg, pool).ImportLeadsCSV(cmd.Context(), f, eventID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d rows (%d blank rows skipped)\n", summary.Inserted, summary.Total, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().String("event", "", "Event id assigned to rows without event_id")
	cmd.Flags().Bool("check-mx", false, "Reject emails whose domain has no MX record")

	return cmd
}

func eventFlag(cmd *cobra.Command) (*uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("event")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --event value %q: %w", raw, err)
	}
	return &id, nil
}

func leadsService(cfg *config.Config, pool *pgxpool.Pool) *service.LeadsService {
	var opts []service.ContactNormalizerOption
	if cfg.CheckEmailMX {
		opts = append(opts, service.WithMXCheck(nil))
	}
	return service.NewLeadsService(
		repository.NewPGXLeadsRepository(pool),
		repository.NewPGXEventsRepository(pool),
		repository.NewPGXTasksRepository(pool),
		service.NewContactNormalizer(cfg.PhoneRegion, opts...),
	)
}
