package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"paper-registry/internal/domain"
)

const fakeTimestamp = 1700000000

// fakeChain executes PaperValidator calls in memory. Methods the registry
// never uses fall through to the nil embedded Backend and panic.
type fakeChain struct {
	Backend

	mu       sync.Mutex
	chainID  *big.Int
	recorded map[[32]byte]common.Address
	receipts map[common.Hash]*types.Receipt
	nonces   map[common.Address]uint64
	dials    int
	closed   bool

	sendErr      error
	revertOnMine bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  big.NewInt(11155111),
		recorded: make(map[[32]byte]common.Address),
		receipts: make(map[common.Hash]*types.Receipt),
		nonces:   make(map[common.Address]uint64),
	}
}

func (f *fakeChain) dial(ctx context.Context, url string) (Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	return f, nil
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) { return f.chainID, nil }

func (f *fakeChain) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeChain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[account], nil
}

// HeaderByNumber returns a pre-London header so bind builds legacy transactions.
func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg geth.CallMsg) (uint64, error) {
	if msg.To != nil {
		method, args, err := decodeCall(msg.Data)
		if err != nil {
			return 0, err
		}
		if method == methodValidate && f.isRecorded(args[0].([32]byte)) {
			return 0, errors.New("execution reverted: Paper already validated")
		}
	}
	return 100_000, nil
}

func (f *fakeChain) CallContract(ctx context.Context, call geth.CallMsg, blockNumber *big.Int) ([]byte, error) {
	method, args, err := decodeCall(call.Data)
	if err != nil {
		return nil, err
	}
	digest := args[0].([32]byte)

	f.mu.Lock()
	validator, ok := f.recorded[digest]
	f.mu.Unlock()

	outputs := parsedABI.Methods[method].Outputs
	switch method {
	case methodIsValidated:
		return outputs.Pack(ok)
	case methodDetails:
		ts := big.NewInt(0)
		if ok {
			ts = big.NewInt(fakeTimestamp)
		}
		return outputs.Pack(ok, validator, ts)
	default:
		return nil, errors.New("unexpected call " + method)
	}
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	sender, err := types.Sender(types.LatestSignerForChainID(f.chainID), tx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(2),
	}
	if tx.To() == nil {
		receipt.ContractAddress = crypto.CreateAddress(sender, tx.Nonce())
	} else {
		_, args, err := decodeCall(tx.Data())
		if err != nil {
			return err
		}
		if f.revertOnMine {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			f.recorded[args[0].([32]byte)] = sender
		}
	}
	f.nonces[sender]++
	f.receipts[tx.Hash()] = receipt
	return nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, geth.NotFound
}

func (f *fakeChain) isRecorded(digest [32]byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recorded[digest]
	return ok
}

func decodeCall(data []byte) (string, []interface{}, error) {
	if len(data) < 4 {
		return "", nil, errors.New("short call data")
	}
	method, err := parsedABI.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, err
	}
	return method.Name, args, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})             {}
func (nopLogger) Error(msg string, err error, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{})            {}
func (nopLogger) Warn(msg string, fields ...interface{})             {}
func (l nopLogger) With(fields ...interface{}) domain.Logger         { return l }
