package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scanbay/internal/ledger"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <device-id>",
		Short: "Submit a device identifier manually",
		Long:  "Submit a device identifier as if the camera had recognized it, for labels the recognizer cannot read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := strings.TrimSpace(args[0])
			if deviceID == "" {
				return fmt.Errorf("device id is required")
			}
			if err := ctx.client().Scan(cmd.Context(), deviceID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scan submitted: %s\n", deviceID)
			return nil
		},
	}
}

func newModeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "mode <barcode|ocr|hybrid>",
		Short:     "Switch the recognition mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: modeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := ledger.ParseMode(args[0]); !ok {
				return fmt.Errorf("unknown scan mode %q (expected one of %s)", args[0], strings.Join(modeNames(), ", "))
			}
			resp, err := ctx.client().SetMode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), firstNonEmpty(resp.Message, "Scan mode updated"))
			return nil
		},
	}
}

func newComponentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "component <glasses|controller|battery>",
		Short:     "Switch the component type for subsequent scans",
		Args:      cobra.ExactArgs(1),
		ValidArgs: componentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := ledger.ParseComponent(args[0]); !ok {
				return fmt.Errorf("unknown component %q (expected one of %s)", args[0], strings.Join(componentNames(), ", "))
			}
			resp, err := ctx.client().SetComponent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), firstNonEmpty(resp.Message, "Component updated"))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Persist the current inventory to the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records as snapshot %s\n", resp.RecordCount, resp.SnapshotID)
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe the current inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("clearing discards unsaved scans; re-run with --force (or export first)")
			}
			if err := ctx.client().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Inventory cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation guard")
	return cmd
}

func modeNames() []string {
	return []string{string(ledger.ModeBarcode), string(ledger.ModeOCR), string(ledger.ModeHybrid)}
}

func componentNames() []string {
	names := make([]string, 0, len(ledger.AllComponents()))
	for _, component := range ledger.AllComponents() {
		names = append(names, string(component))
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
