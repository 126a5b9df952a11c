package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"irus/app"
	"irus/config"
	"irus/models"
	"irus/services"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build and publish reports",
}

var reportMonthCmd = &cobra.Command{
	Use:   "month [YYYYMM]",
	Short: "Build the month statistics and upload the CSV report",
	Long:  `Build the month statistics and upload the CSV report. Defaults to the previous month.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Require("TABLE_NAME", "BUCKET_NAME"); err != nil {
			return err
		}

		month := models.PreviousMonth(time.Now().In(cfg.Location()))
		if len(args) == 1 {
			month = args[0]
		}
		if !models.ValidMonth(month) {
			return fmt.Errorf("month must be YYYYMM: %q", month)
		}

		awsCfg, err := services.LoadAWSConfig(cmd.Context())
		if err != nil {
			return err
		}
		msg, err := app.New(cfg, awsCfg, log).MonthReport(cmd.Context(), month)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	reportCmd.AddCommand(reportMonthCmd)
}
