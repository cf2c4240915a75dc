package config

import (
	"fmt"

	"paper-registry/internal/domain"
	"paper-registry/internal/infra/ethereum"
	"paper-registry/internal/infra/local"
	"paper-registry/internal/infra/supabase"
	"paper-registry/internal/service"
	"paper-registry/pkg/logger"
)

// LocalLedgerInMemory as LOCAL_LEDGER_PATH keeps the local ledger in memory.
const LocalLedgerInMemory = ":memory:"

// Container holds all application dependencies
type Container struct {
	Config    domain.Config
	Logger    domain.Logger
	Inspector *service.DocumentInspector
	Digester  *service.DigestService
	Workflow  *service.ValidationWorkflow
	Registry  domain.Registry
	Signer    domain.Signer
	Previews  *service.PreviewManager
	Auth      domain.TokenValidator // nil when Supabase is not configured
	Session   *ethereum.Session     // nil for the local backend

	closers []func() error
}

// NewContainer wires the application from the environment
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	return NewContainerWithConfig(cfg, logger.NewLogger(cfg.GetLogLevel()))
}

// NewContainerWithConfig wires the application from cfg
func NewContainerWithConfig(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Logger:    appLogger,
		Inspector: service.NewDocumentInspector(cfg.GetMaxFileSize(), appLogger),
		Digester:  service.NewDigestService(),
	}

	if err := c.initLedger(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Workflow = service.NewValidationWorkflow(
		service.NewPDFTextExtractor(appLogger),
		c.Digester,
		c.Registry,
		c.Signer,
		appLogger,
	)

	c.Previews = service.NewPreviewManager(cfg.GetPreviewTTL(), service.NewFitzRenderer, appLogger)
	c.closers = append(c.closers, func() error {
		c.Previews.CloseAll()
		return nil
	})

	if cfg.GetSupabaseURL() != "" && cfg.GetSupabaseKey() != "" {
		auth, err := supabase.NewAuthClient(cfg.GetSupabaseURL(), cfg.GetSupabaseKey(), appLogger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Auth = auth
	} else {
		appLogger.Warn("Supabase not configured; API routes are unauthenticated")
	}

	return c, nil
}

func (c *Container) initLedger() error {
	switch c.Config.GetLedgerBackend() {
	case LedgerLocal:
		var (
			ledger *local.Ledger
			err    error
		)
		if path := c.Config.GetLocalLedgerPath(); path == LocalLedgerInMemory {
			ledger, err = local.OpenInMemory(c.Logger)
		} else {
			ledger, err = local.Open(path, c.Logger)
		}
		if err != nil {
			return err
		}
		c.Registry = ledger
		c.Signer = local.NewSigner(c.Config.GetLocalSigner())
		c.closers = append(c.closers, ledger.Close)
		return nil

	case LedgerEthereum:
		session, err := NewEthereumSession(c.Config, c.Logger)
		if err != nil {
			return err
		}
		registry, err := ethereum.NewRegistry(session, c.Config.GetContractAddress(), c.Config.GetLedgerTimeout(), c.Logger)
		if err != nil {
			_ = session.Close()
			return fmt.Errorf("CONTRACT_ADDRESS: %w", err)
		}
		c.Session = session
		c.Registry = registry
		c.Signer = session
		c.closers = append(c.closers, session.Close)
		c.Logger.Info("Using ethereum ledger", "network", session.NetworkName(), "contract", registry.Address())
		return nil

	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Config.GetLedgerBackend())
	}
}

// NewEthereumSession builds a session from cfg. The connection itself is
// opened lazily on first use.
func NewEthereumSession(cfg domain.Config, logger domain.Logger) (*ethereum.Session, error) {
	rpcURL, err := cfg.GetRPCURL()
	if err != nil {
		return nil, err
	}
	return ethereum.NewSession(ethereum.SessionConfig{
		RPCURL:      rpcURL,
		Network:     cfg.GetNetworkName(),
		PrivateKey:  cfg.GetPrivateKey(),
		DialTimeout: cfg.GetLedgerTimeout(),
	}, logger)
}

// Close releases resources in reverse order of acquisition
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
