package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// Registry implements domain.Registry against a deployed PaperValidator.
type Registry struct {
	conn    Connector
	address common.Address
	timeout time.Duration
	logger  domain.Logger
}

// NewRegistry binds the contract at address. timeout bounds each ledger call;
// zero leaves calls bounded only by the caller's context.
func NewRegistry(conn Connector, address string, timeout time.Duration, logger domain.Logger) (*Registry, error) {
	if !common.IsHexAddress(address) {
		return nil, apperrors.NewInvalidInputError("Invalid contract address", address)
	}
	return &Registry{
		conn:    conn,
		address: common.HexToAddress(address),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Address returns the bound contract address.
func (r *Registry) Address() string {
	return r.address.Hex()
}

// Network implements domain.Registry
func (r *Registry) Network() string {
	return r.conn.NetworkName()
}

// IsRecorded implements domain.Registry
func (r *Registry) IsRecorded(ctx context.Context, digest domain.ContentDigest) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	contract, _, err := r.boundContract(ctx)
	if err != nil {
		return false, err
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, methodIsValidated, [32]byte(digest)); err != nil {
		return false, classifyError(err)
	}
	recorded, ok := out[0].(bool)
	if !ok {
		return false, apperrors.NewLedgerUnavailableError("Unexpected response from registry", fmt.Errorf("got %T", out[0]))
	}
	return recorded, nil
}

// Details implements domain.Registry
func (r *Registry) Details(ctx context.Context, digest domain.ContentDigest) (*domain.ValidationRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	contract, _, err := r.boundContract(ctx)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, methodDetails, [32]byte(digest)); err != nil {
		return nil, classifyError(err)
	}
	if len(out) != 3 {
		return nil, apperrors.NewLedgerUnavailableError("Unexpected response from registry", fmt.Errorf("got %d values", len(out)))
	}
	recorded, _ := out[0].(bool)
	validator, _ := out[1].(common.Address)
	timestamp, _ := out[2].(*big.Int)

	record := &domain.ValidationRecord{Digest: digest, Recorded: recorded}
	if recorded {
		record.RecordedBy = validator.Hex()
		if timestamp != nil {
			record.RecordedAt = time.Unix(timestamp.Int64(), 0).UTC()
		}
	}
	return record, nil
}

// Record implements domain.Registry. It sends validatePaper and waits for
// the receipt; a reverted receipt counts as a rejected commit.
func (r *Registry) Record(ctx context.Context, digest domain.ContentDigest, signer domain.Signer) error {
	source, ok := signer.(TransactorSource)
	if !ok {
		return apperrors.NewSignerRejectedError("Signer cannot sign ledger transactions", domain.ErrNoSigner)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	from, err := signer.Authorize(ctx)
	if err != nil {
		return classifyError(err)
	}
	opts, err := source.Transactor(ctx)
	if err != nil {
		return classifyError(err)
	}
	contract, conn, err := r.boundContract(ctx)
	if err != nil {
		return err
	}

	tx, err := contract.Transact(opts, methodValidate, [32]byte(digest))
	if err != nil {
		return classifyError(err)
	}
	r.logger.Info("Validation transaction sent", "tx", tx.Hash().Hex(), "from", from, "digest", digest.Hex())

	receipt, err := bind.WaitMined(ctx, conn.Backend, tx)
	if err != nil {
		return classifyError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return apperrors.NewSignerRejectedError("Ledger refused the commit", fmt.Errorf("transaction %s reverted", tx.Hash().Hex()))
	}

	r.logger.Info("Validation transaction mined", "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	return nil
}

func (r *Registry) boundContract(ctx context.Context) (*bind.BoundContract, *Connection, error) {
	conn, err := r.conn.Connect(ctx)
	if err != nil {
		return nil, nil, classifyError(err)
	}
	contract := bind.NewBoundContract(r.address, parsedABI, conn.Backend, conn.Backend, conn.Backend)
	return contract, conn, nil
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// classifyError maps RPC and signing failures to error kinds. Node error
// strings are the only signal JSON-RPC gives for most of these.
func classifyError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewLedgerUnavailableError("Ledger request timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewCanceledError("Ledger request was canceled", err)
	case errors.Is(err, bind.ErrNoCode):
		return apperrors.NewLedgerUnavailableError("No registry contract at the configured address", err)
	case errors.Is(err, bind.ErrNotAuthorized):
		return apperrors.NewSignerRejectedError("Signer is not authorized for this account", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return apperrors.NewInsufficientResourcesError("Insufficient funds for gas", err)
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "user rejected"):
		return apperrors.NewSignerRejectedError("Signer denied the transaction", err)
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "already validated"):
		return apperrors.NewSignerRejectedError("Ledger refused the commit", err)
	default:
		return apperrors.NewLedgerUnavailableError("Ledger request failed", err)
	}
}
