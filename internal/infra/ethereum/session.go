package ethereum

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/singleflight"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// Backend is the subset of *ethclient.Client used by the registry.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Dialer opens a Backend for an endpoint URL.
type Dialer func(ctx context.Context, url string) (Backend, error)

// DialEthclient is the default Dialer.
func DialEthclient(ctx context.Context, url string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Connection is an established link to a chain.
type Connection struct {
	Backend Backend
	ChainID *big.Int
}

// Connector hands out the shared connection.
type Connector interface {
	Connect(ctx context.Context) (*Connection, error)
	NetworkName() string
}

// TransactorSource is a signer able to produce transaction options.
type TransactorSource interface {
	Transactor(ctx context.Context) (*bind.TransactOpts, error)
}

// defaultDialTimeout bounds a dial when SessionConfig.DialTimeout is unset.
const defaultDialTimeout = 30 * time.Second

// SessionConfig configures a Session.
type SessionConfig struct {
	RPCURL      string
	Network     string
	PrivateKey  string // hex, optional; without it the session is read-only
	Dial        Dialer
	DialTimeout time.Duration
}

// Session owns the ledger connection and the signing key. It is created
// once per process; concurrent Connect calls share a single dial.
type Session struct {
	rpcURL      string
	network     string
	dial        Dialer
	dialTimeout time.Duration
	key         *ecdsa.PrivateKey
	address common.Address
	logger  domain.Logger

	group singleflight.Group
	mu    sync.RWMutex
	conn  *Connection
}

// NewSession validates cfg and returns an unconnected session.
func NewSession(cfg SessionConfig, logger domain.Logger) (*Session, error) {
	if cfg.RPCURL == "" {
		return nil, apperrors.NewLedgerUnavailableError("No ledger endpoint configured", nil)
	}
	s := &Session{
		rpcURL:      cfg.RPCURL,
		network:     cfg.Network,
		dial:        cfg.Dial,
		dialTimeout: cfg.DialTimeout,
		logger:      logger,
	}
	if s.dial == nil {
		s.dial = DialEthclient
	}
	if s.dialTimeout <= 0 {
		s.dialTimeout = defaultDialTimeout
	}
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
		if err != nil {
			return nil, apperrors.NewSignerRejectedError("Invalid signing key", err)
		}
		s.key = key
		s.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return s, nil
}

// NetworkName implements Connector
func (s *Session) NetworkName() string {
	return s.network
}

// Connect dials the endpoint on first use and returns the shared connection.
// The dial is shared by all concurrent callers and does not stop when one of
// them gives up; each caller waits only as long as its own ctx allows.
func (s *Session) Connect(ctx context.Context) (*Connection, error) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn != nil {
		return conn, nil
	}

	ch := s.group.DoChan("connect", func() (interface{}, error) {
		s.mu.RLock()
		existing := s.conn
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dialTimeout)
		defer cancel()

		backend, err := s.dial(dialCtx, s.rpcURL)
		if err != nil {
			return nil, apperrors.NewLedgerUnavailableError("Failed to connect to ledger", err)
		}
		chainID, err := backend.ChainID(dialCtx)
		if err != nil {
			backend.Close()
			return nil, apperrors.NewLedgerUnavailableError("Failed to read chain id", err)
		}

		c := &Connection{Backend: backend, ChainID: chainID}
		s.mu.Lock()
		s.conn = c
		s.mu.Unlock()

		s.logger.Info("Connected to ledger", "network", s.network, "chain_id", chainID.String())
		return c, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Connection), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Accounts implements domain.Signer
func (s *Session) Accounts(ctx context.Context) ([]string, error) {
	if s.key == nil {
		return nil, nil
	}
	return []string{s.address.Hex()}, nil
}

// Authorize implements domain.Signer. A configured key authorizes without
// prompting.
func (s *Session) Authorize(ctx context.Context) (string, error) {
	if s.key == nil {
		return "", apperrors.NewSignerRejectedError("No signer is connected", domain.ErrNoSigner)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.address.Hex(), nil
}

// Transactor implements TransactorSource
func (s *Session) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if s.key == nil {
		return nil, apperrors.NewSignerRejectedError("No signer is connected", domain.ErrNoSigner)
	}
	conn, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, conn.ChainID)
	if err != nil {
		return nil, apperrors.NewSignerRejectedError("Failed to create transactor", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Close drops the connection. A later Connect dials again.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Backend.Close()
	}
	return nil
}
