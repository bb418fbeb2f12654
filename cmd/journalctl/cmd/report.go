package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print journal statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openJournal(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			trades, err := model.ListTrades(db)
			if err != nil {
				return fmt.Errorf("list trades: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(processors.NewStatsProcessor().Process(trades))
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var out string

	c := &cobra.Command{
		Use:   "export",
		Short: "Merge all trades into the Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = config.Cfg.ExportPath
			}
			db, err := openJournal(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			data, err := services.NewExportService(db, out).ExportTrades()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "", "workbook path (default $EXPORT_PATH)")
	return c
}
