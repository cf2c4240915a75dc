package cli

import (
	"github.com/spf13/cobra"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

var detailsCmd = &cobra.Command{
	Use:   "details [hash]",
	Short: "Show the ledger record for a paper hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

var digestCmd = &cobra.Command{
	Use:   "digest [file]",
	Short: "Print a paper's hash without contacting the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runDigest,
}

func init() {
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(digestCmd)
}

func runDetails(cmd *cobra.Command, args []string) error {
	digest, err := domain.ParseDigest(args[0])
	if err != nil {
		return apperrors.NewInvalidInputError("Invalid paper hash", err.Error())
	}

	svc, err := ledgerServices()
	if err != nil {
		return err
	}
	defer closeServices(svc)

	record, err := svc.Registry.Details(cmd.Context(), digest)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, record)
	}

	cmd.Printf("Hash:       %s\n", record.Digest.Hex())
	cmd.Printf("Blockchain: %s\n", svc.Registry.Network())
	if !record.Recorded {
		cmd.Println(domain.MessageNotFound)
		return nil
	}
	cmd.Printf("Validator:  %s\n", record.RecordedBy)
	cmd.Printf("Recorded:   %s\n", record.RecordedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	svc, err := offlineServices()
	if err != nil {
		return err
	}
	defer closeServices(svc)

	doc, err := loadDocument(svc.Inspector, args[0])
	if err != nil {
		return err
	}
	digest, err := svc.Workflow.Fingerprint(cmd.Context(), doc)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, map[string]string{"file": doc.Name, "hash": digest.Hex()})
	}
	cmd.Println(digest.Hex())
	return nil
}
