package ethereum

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, "0x" + hex.EncodeToString(crypto.FromECDSA(key))
}

func newTestSession(t *testing.T, chain *fakeChain, privateKey string) *Session {
	t.Helper()
	s, err := NewSession(SessionConfig{
		RPCURL:     "http://ledger.test",
		Network:    "sepolia",
		PrivateKey: privateKey,
		Dial:       chain.dial,
	}, nopLogger{})
	require.NoError(t, err)
	return s
}

func newTestRegistry(t *testing.T, session *Session) *Registry {
	t.Helper()
	r, err := NewRegistry(session, testContract, time.Second, nopLogger{})
	require.NoError(t, err)
	return r
}

func testDigest(b byte) domain.ContentDigest {
	var d domain.ContentDigest
	for i := range d {
		d[i] = b
	}
	return d
}

func TestRegistry_RecordAndRead(t *testing.T) {
	chain := newFakeChain()
	key, hexKey := newKey(t)
	session := newTestSession(t, chain, hexKey)
	registry := newTestRegistry(t, session)
	ctx := context.Background()
	d := testDigest(0xab)

	recorded, err := registry.IsRecorded(ctx, d)
	require.NoError(t, err)
	assert.False(t, recorded)

	record, err := registry.Details(ctx, d)
	require.NoError(t, err)
	assert.False(t, record.Recorded)
	assert.Empty(t, record.RecordedBy)

	require.NoError(t, registry.Record(ctx, d, session))

	recorded, err = registry.IsRecorded(ctx, d)
	require.NoError(t, err)
	assert.True(t, recorded)

	record, err = registry.Details(ctx, d)
	require.NoError(t, err)
	assert.True(t, record.Recorded)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), record.RecordedBy)
	assert.Equal(t, time.Unix(fakeTimestamp, 0).UTC(), record.RecordedAt)
	assert.Equal(t, "sepolia", registry.Network())
}

func TestRegistry_DuplicateCommitRejected(t *testing.T) {
	chain := newFakeChain()
	_, hexKey := newKey(t)
	session := newTestSession(t, chain, hexKey)
	registry := newTestRegistry(t, session)
	ctx := context.Background()
	d := testDigest(0x01)

	require.NoError(t, registry.Record(ctx, d, session))

	err := registry.Record(ctx, d, session)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))
}

func TestRegistry_RevertedReceipt(t *testing.T) {
	chain := newFakeChain()
	chain.revertOnMine = true
	_, hexKey := newKey(t)
	session := newTestSession(t, chain, hexKey)
	registry := newTestRegistry(t, session)

	err := registry.Record(context.Background(), testDigest(0x02), session)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))
	assert.False(t, chain.isRecorded(testDigest(0x02)))
}

func TestRegistry_InsufficientFunds(t *testing.T) {
	chain := newFakeChain()
	chain.sendErr = errors.New("insufficient funds for gas * price + value")
	_, hexKey := newKey(t)
	session := newTestSession(t, chain, hexKey)
	registry := newTestRegistry(t, session)

	err := registry.Record(context.Background(), testDigest(0x03), session)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientResources))
}

func TestRegistry_ReadOnlySession(t *testing.T) {
	chain := newFakeChain()
	session := newTestSession(t, chain, "")
	registry := newTestRegistry(t, session)
	ctx := context.Background()

	accounts, err := session.Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = registry.Details(ctx, testDigest(0x04))
	require.NoError(t, err)

	err = registry.Record(ctx, testDigest(0x04), session)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))
	assert.ErrorIs(t, err, domain.ErrNoSigner)
}

type plainSigner struct{}

func (plainSigner) Accounts(ctx context.Context) ([]string, error) { return []string{"me"}, nil }
func (plainSigner) Authorize(ctx context.Context) (string, error)  { return "me", nil }

func TestRegistry_SignerMustSignTransactions(t *testing.T) {
	chain := newFakeChain()
	registry := newTestRegistry(t, newTestSession(t, chain, ""))

	err := registry.Record(context.Background(), testDigest(0x05), plainSigner{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))

	err = registry.Record(context.Background(), testDigest(0x05), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))
}

func TestRegistry_DialFailure(t *testing.T) {
	session, err := NewSession(SessionConfig{
		RPCURL: "http://ledger.test",
		Dial: func(ctx context.Context, url string) (Backend, error) {
			return nil, errors.New("connection refused")
		},
	}, nopLogger{})
	require.NoError(t, err)
	registry := newTestRegistry(t, session)

	_, err = registry.IsRecorded(context.Background(), testDigest(0x06))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLedgerUnavailable))
}

func TestNewRegistry_InvalidAddress(t *testing.T) {
	_, err := NewRegistry(newTestSession(t, newFakeChain(), ""), "not-an-address", 0, nopLogger{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}

func TestSession_SharedConnection(t *testing.T) {
	chain := newFakeChain()
	session := newTestSession(t, chain, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Connect(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, chain.dials)

	require.NoError(t, session.Close())
	assert.True(t, chain.closed)

	conn, err := session.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.chainID, conn.ChainID)
	assert.Equal(t, 2, chain.dials)
}

func TestSession_DialSurvivesFirstCallerCancel(t *testing.T) {
	chain := newFakeChain()
	started := make(chan struct{})
	gate := make(chan struct{})
	session, err := NewSession(SessionConfig{
		RPCURL:  "http://ledger.test",
		Network: "sepolia",
		Dial: func(ctx context.Context, url string) (Backend, error) {
			close(started)
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return chain.dial(ctx, url)
		},
	}, nopLogger{})
	require.NoError(t, err)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := session.Connect(first)
		firstErr <- err
	}()
	<-started

	secondConn := make(chan *Connection, 1)
	go func() {
		conn, err := session.Connect(context.Background())
		assert.NoError(t, err)
		secondConn <- conn
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller kept waiting on the dial")
	}

	close(gate)
	select {
	case conn := <-secondConn:
		require.NotNil(t, conn)
		assert.Equal(t, chain.chainID, conn.ChainID)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not get the connection")
	}
	assert.Equal(t, 1, chain.dials)
}

func TestSession_Config(t *testing.T) {
	_, err := NewSession(SessionConfig{}, nopLogger{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLedgerUnavailable))

	_, err = NewSession(SessionConfig{RPCURL: "http://ledger.test", PrivateKey: "zz"}, nopLogger{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSignerRejected))

	key, hexKey := newKey(t)
	s := newTestSession(t, newFakeChain(), hexKey)
	identity, err := s.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), identity)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{"deadline", context.DeadlineExceeded, apperrors.ErrorTypeLedgerUnavailable},
		{"canceled", context.Canceled, apperrors.ErrorTypeCanceled},
		{"no code", bind.ErrNoCode, apperrors.ErrorTypeLedgerUnavailable},
		{"not authorized", bind.ErrNotAuthorized, apperrors.ErrorTypeSignerRejected},
		{"funds", errors.New("Insufficient funds for gas * price + value"), apperrors.ErrorTypeInsufficientResources},
		{"user denied", errors.New("MetaMask Tx Signature: User denied transaction signature."), apperrors.ErrorTypeSignerRejected},
		{"revert", errors.New("execution reverted: Paper already validated"), apperrors.ErrorTypeSignerRejected},
		{"network", errors.New("dial tcp: connection refused"), apperrors.ErrorTypeLedgerUnavailable},
		{"kept", apperrors.NewInvalidInputError("bad"), apperrors.ErrorTypeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.KindOf(classifyError(tt.err)))
		})
	}
}
