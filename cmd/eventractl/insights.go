package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventra/dashboard/api/internal/repository"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Maintain the AI insight cache",
	}
	cmd.AddCommand(insightsPurgeCmd())
	return cmd
}

func insightsPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached insights that expired before now minus --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}

			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			cutoff := time.Now().Add(-olderThan)
			removed, err := repository.NewPGXInsightsRepository(pool).DeleteExpired(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired insights (cutoff %s)\n", removed, cutoff.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().Duration("older-than", 0, "Keep insights that expired less than this long ago")

	return cmd
}
