// Package cli implements the registry command line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paper-registry/internal/domain"
	"paper-registry/internal/infra/ethereum"
	"paper-registry/internal/service"
)

// Workflow is the validation surface the commands drive.
type Workflow interface {
	domain.ValidationService
	Fingerprint(ctx context.Context, doc *domain.Document) (domain.ContentDigest, error)
}

// Deployer publishes the registry contract.
type Deployer interface {
	Deploy(ctx context.Context, bytecode []byte) (*ethereum.Deployment, error)
}

// Services are built on demand by a Loader.
type Services struct {
	Inspector domain.DocumentInspector
	Workflow  Workflow
	Registry  domain.Registry // nil for offline services
	Close     func() error
}

// Loader builds services for a command. Commands ask only for what they use,
// so offline commands never need ledger configuration.
type Loader interface {
	Offline() (*Services, error)
	Ledger() (*Services, error)
	Deployer() (Deployer, domain.Signer, func() error, error)
}

var loader Loader

// outputJSON switches command output to JSON.
var outputJSON bool

var rootCmd = &cobra.Command{
	Use:           "registry",
	Short:         "Validate research papers against the on-chain registry",
	Long:          `Extracts the text of a PDF, hashes it and checks or records the hash in the PaperValidator contract.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print results as JSON")
}

// SetLoader installs the service loader used by all commands.
func SetLoader(l Loader) {
	loader = l
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func ledgerServices() (*Services, error) {
	if loader == nil {
		return nil, errors.New("services not configured")
	}
	return loader.Ledger()
}

func offlineServices() (*Services, error) {
	if loader == nil {
		return nil, errors.New("services not configured")
	}
	return loader.Offline()
}

func closeServices(s *Services) {
	if s != nil && s.Close != nil {
		_ = s.Close()
	}
}

// loadDocument reads path through the same checks as an upload.
func loadDocument(inspector domain.DocumentInspector, path string) (*domain.Document, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return inspector.Inspect(path, payload, service.DeclaredTypeForPath(path))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
