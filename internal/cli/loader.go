package cli

import (
	"paper-registry/internal/config"
	"paper-registry/internal/domain"
	"paper-registry/internal/infra/ethereum"
	"paper-registry/internal/service"
)

// ContainerLoader builds services from the environment configuration.
type ContainerLoader struct {
	Config domain.Config
	Logger domain.Logger
}

// Offline implements Loader
func (l *ContainerLoader) Offline() (*Services, error) {
	return &Services{
		Inspector: service.NewDocumentInspector(l.Config.GetMaxFileSize(), l.Logger),
		Workflow: service.NewValidationWorkflow(
			service.NewPDFTextExtractor(l.Logger),
			service.NewDigestService(),
			nil, nil,
			l.Logger,
		),
	}, nil
}

// Ledger implements Loader
func (l *ContainerLoader) Ledger() (*Services, error) {
	c, err := config.NewContainerWithConfig(l.Config, l.Logger)
	if err != nil {
		return nil, err
	}
	return &Services{
		Inspector: c.Inspector,
		Workflow:  c.Workflow,
		Registry:  c.Registry,
		Close:     c.Close,
	}, nil
}

// Deployer implements Loader
func (l *ContainerLoader) Deployer() (Deployer, domain.Signer, func() error, error) {
	session, err := config.NewEthereumSession(l.Config, l.Logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return ethereum.NewDeployer(session, l.Logger), session, session.Close, nil
}
