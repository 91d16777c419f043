package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/debriefapp/debrief-cli/internal/domain"
	"github.com/debriefapp/debrief-cli/internal/guard"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download demand reports",
}

var reportDemandsCmd = &cobra.Command{
	Use:   "demands <output-file>",
	Short: "Download a demand report as pdf or xlsx",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDemands,
}

var (
	reportFormat string
	reportStatus []string
	reportClient string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDemandsCmd)

	reportDemandsCmd.Flags().StringVarP(&reportFormat, "format", "f", "pdf", "report format (pdf, xlsx)")
	reportDemandsCmd.Flags().StringSliceVar(&reportStatus, "status", nil, "filter by status (repeatable)")
	reportDemandsCmd.Flags().StringVar(&reportClient, "client", "", "filter by client ID")
}

func runReportDemands(cmd *cobra.Command, args []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if err := requireScreen(guard.New(app.Session), "/reports"); err != nil {
		return err
	}

	filter := domain.DemandFilter{ClientID: reportClient}
	for _, s := range reportStatus {
		status := domain.DemandStatus(s)
		if !status.IsValid() {
			return fmt.Errorf("unknown status %q", s)
		}
		filter.Status = append(filter.Status, status)
	}

	dest, err := os.Create(args[0]) //nolint:gosec // User-supplied output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	defer func() { _ = dest.Close() }()

	if err := app.API.DownloadReport(cmd.Context(), reportFormat, filter, dest); err != nil {
		return err
	}

	fmt.Printf("✓ Report written to %s\n", args[0])
	return nil
}
