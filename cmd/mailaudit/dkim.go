package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dkimQuick bool
	dkimJSON  bool
)

var dkimCmd = &cobra.Command{
	Use:   "dkim <domain>",
	Short: "Scan a domain's DKIM selectors",
	Long: `Probe the domain's DKIM selector catalog and report which selectors
publish keys. With --quick only the head of the catalog is probed.

Examples:
  mailaudit dkim example.com
  mailaudit dkim example.com --quick`,
	Args: cobra.ExactArgs(1),
	RunE: runDKIM,
}

func init() {
	rootCmd.AddCommand(dkimCmd)

	dkimCmd.Flags().BoolVarP(&dkimQuick, "quick", "q", false, "Probe only the top selector candidates")
	dkimCmd.Flags().BoolVar(&dkimJSON, "json", false, "Output results as JSON")
}

func runDKIM(cmd *cobra.Command, args []string) error {
	auditor, err := newAuditor()
	if err != nil {
		return err
	}

	if dkimQuick {
		section, err := auditor.QuickDKIMScan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if dkimJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(section)
		}
		fmt.Print(renderDKIMSection(args[0], section))
		return nil
	}

	report, err := auditor.CheckDomain(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if dkimJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report.DKIM)
	}
	fmt.Print(renderDKIMSection(report.Domain, &report.DKIM))
	return nil
}
