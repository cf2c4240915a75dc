package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paper-registry/internal/infra/ethereum"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the PaperValidator contract",
	Long: `Deploys contracts/PaperValidator.sol from its compiled bytecode. The
bytecode file may hold raw hex or a Hardhat/solc JSON artifact.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

// bytecodePath is a flag for the deploy command.
var bytecodePath string

func init() {
	deployCmd.Flags().StringVarP(&bytecodePath, "bytecode", "b", "", "Path to the compiled contract bytecode")
	_ = deployCmd.MarkFlagRequired("bytecode")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	if loader == nil {
		return errors.New("services not configured")
	}

	data, err := os.ReadFile(bytecodePath)
	if err != nil {
		return fmt.Errorf("failed to read bytecode: %w", err)
	}
	bytecode, err := ethereum.ParseBytecode(data)
	if err != nil {
		return err
	}

	deployer, signer, closeFn, err := loader.Deployer()
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	account, err := signer.Authorize(cmd.Context())
	if err != nil {
		return err
	}
	if !outputJSON {
		cmd.Printf("Deploying contracts with the account: %s\n", account)
	}

	deployment, err := deployer.Deploy(cmd.Context(), bytecode)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, deployment)
	}
	cmd.Printf("PaperValidator deployed to: %s\n", deployment.Address)
	cmd.Printf("Transaction: %s\n", deployment.TxHash)
	return nil
}
