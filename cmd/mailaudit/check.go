package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	checkSelector string
	checkJSON     bool
)

var checkCmd = &cobra.Command{
	Use:   "check <domain>",
	Short: "Run a full email authentication scan",
	Long: `Scan a domain's MX, SPF, DMARC and DKIM configuration, score it,
and print prioritized recommendations.

Examples:
  mailaudit check example.com
  mailaudit check example.com --selector mail2024
  mailaudit check example.com --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkSelector, "selector", "s", "", "Custom DKIM selector to probe first")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output the report as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	auditor, err := newAuditor()
	if err != nil {
		return err
	}

	report, err := auditor.CheckDomainWithSelector(cmd.Context(), args[0], checkSelector)
	if err != nil {
		return err
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Print(renderReport(report))
	return nil
}
