package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scanbay/internal/api"
	"scanbay/internal/daemonctl"
	"scanbay/internal/ledger"
	"scanbay/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scan session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil && !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				return err
			}
			offline := errors.Is(err, daemonctl.ErrDaemonNotRunning)
			if offline {
				status = &api.DaemonStatus{}
				for _, dep := range preflight.CheckSystemDeps(cmd.Context(), ctx.configValue()) {
					status.Dependencies = append(status.Dependencies, api.DependencyStatus{
						Name:        dep.Name,
						Command:     dep.Command,
						Description: dep.Description,
						Optional:    dep.Optional,
						Available:   dep.Available,
						Detail:      dep.Detail,
					})
				}
			}

			if jsonOut {
				return printJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if status.Running {
				fmt.Fprintln(stdout, renderStatusLine("Scanbay", statusOK, "Running (pid "+strconv.Itoa(status.PID)+")", colorize))
				cameraKind, cameraDetail := statusWarn, "Not detected"
				if status.CameraPresent {
					cameraKind, cameraDetail = statusOK, "Attached"
				}
				fmt.Fprintln(stdout, renderStatusLine("Camera", cameraKind, cameraDetail, colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Scanbay", statusWarn, "Not running (run `scanbay daemon start`)", colorize))
			}
			fmt.Fprintln(stdout)

			if status.Running {
				for _, line := range renderSectionHeader("Session", colorize) {
					fmt.Fprintln(stdout, line)
				}
				session := status.Session
				accepting := statusWarn
				acceptingDetail := "Busy (feedback/cooldown)"
				if session.Accepting {
					accepting = statusOK
					acceptingDetail = "Ready for next scan"
				}
				fmt.Fprintln(stdout, renderStatusLine("Accepting", accepting, acceptingDetail, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Component", statusInfo, session.ComponentLabel, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Mode", statusInfo, session.Mode, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Scanned", statusInfo, scanCountDetail(session), colorize))
				if session.StatusMessage != "" {
					fmt.Fprintln(stdout, renderStatusLine("Message", statusInfo, session.StatusMessage, colorize))
				}
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, dep := range status.Dependencies {
				kind := statusOK
				detail := dep.Command
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
					detail = dep.Detail
				}
				fmt.Fprintln(stdout, renderStatusLine(dep.Name, kind, detail, colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output machine-readable JSON")
	return cmd
}

func scanCountDetail(session api.SessionStatus) string {
	detail := strconv.Itoa(session.ScanCount) + " devices"
	parts := make([]string, 0, len(session.Counts))
	for _, component := range ledger.AllComponents() {
		if count := session.Counts[string(component)]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", component.Label(), count))
		}
	}
	if len(parts) > 0 {
		detail += " ("
		for i, part := range parts {
			if i > 0 {
				detail += ", "
			}
			detail += part
		}
		detail += ")"
	}
	return detail
}
