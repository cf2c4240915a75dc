package cli

import (
	"github.com/spf13/cobra"

	"paper-registry/internal/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a paper and record it on the ledger",
	Long:  `Hashes the paper's text and records the hash unless it is already on the ledger.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check whether a paper is already recorded",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	svc, err := ledgerServices()
	if err != nil {
		return err
	}
	defer closeServices(svc)

	doc, err := loadDocument(svc.Inspector, args[0])
	if err != nil {
		return err
	}

	outcome, runErr := svc.Workflow.Run(cmd.Context(), doc)
	if err := printOutcome(cmd, outcome, nil); err != nil {
		return err
	}
	return runErr
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc, err := ledgerServices()
	if err != nil {
		return err
	}
	defer closeServices(svc)

	doc, err := loadDocument(svc.Inspector, args[0])
	if err != nil {
		return err
	}

	outcome, record, runErr := svc.Workflow.Check(cmd.Context(), doc)
	if err := printOutcome(cmd, outcome, record); err != nil {
		return err
	}
	return runErr
}

func printOutcome(cmd *cobra.Command, outcome *domain.ValidationOutcome, record *domain.ValidationRecord) error {
	if outcome == nil {
		return nil
	}
	report := outcome.Report()
	if outputJSON {
		return printJSON(cmd, struct {
			domain.ValidationReport
			Record *domain.ValidationRecord `json:"record,omitempty"`
		}{report, record})
	}

	cmd.Printf("File:       %s\n", report.File)
	if report.Hash != "" {
		cmd.Printf("Hash:       %s\n", report.Hash)
	}
	cmd.Printf("Status:     %s\n", statusLabel(report.IsValid))
	cmd.Printf("Action:     %s\n", report.Action)
	cmd.Printf("Blockchain: %s\n", report.Network)
	cmd.Printf("Time:       %s\n", report.Timestamp)
	if record != nil && record.Recorded {
		cmd.Printf("Recorded by %s at %s\n", record.RecordedBy, record.RecordedAt.Format("2006-01-02 15:04:05 MST"))
	}
	cmd.Printf("\n%s\n", report.Message)
	return nil
}

func statusLabel(valid bool) string {
	if valid {
		return "Valid"
	}
	return "Invalid"
}
