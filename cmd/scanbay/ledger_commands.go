package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scanbay/internal/api"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List devices scanned in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Ledger(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			if resp.Count == 0 {
				fmt.Fprintln(stdout, "No devices scanned yet")
				return nil
			}
			fmt.Fprintln(stdout, renderRecordTable(resp.Records))
			fmt.Fprintf(stdout, "%d devices\n", resp.Count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "history [snapshot-id]",
		Short: "List archived snapshots, or show one snapshot's records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if len(args) == 1 {
				resp, err := ctx.client().Snapshot(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd, resp)
				}
				fmt.Fprintf(stdout, "Snapshot %s (%d records, exported %s)\n",
					resp.Snapshot.ID, resp.Snapshot.RecordCount, resp.Snapshot.CreatedAt)
				if len(resp.Records) > 0 {
					fmt.Fprintln(stdout, renderRecordTable(resp.Records))
				}
				return nil
			}

			resp, err := ctx.client().History(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, resp)
			}
			if len(resp.Snapshots) == 0 {
				fmt.Fprintln(stdout, "No snapshots archived yet")
				return nil
			}
			rows := make([][]string, 0, len(resp.Snapshots))
			for _, snap := range resp.Snapshots {
				rows = append(rows, []string{snap.ID, snap.CreatedAt, fmt.Sprintf("%d", snap.RecordCount)})
			}
			fmt.Fprintln(stdout, renderTable([]string{"Snapshot", "Exported", "Records"}, rows, 3))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}

func renderRecordTable(records []api.LedgerRecord) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{record.DeviceID, record.ComponentLabel, record.Mode, record.ScannedAt})
	}
	return renderTable([]string{"Device", "Component", "Mode", "Scanned"}, rows)
}
