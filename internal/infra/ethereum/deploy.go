package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// Deployment describes a mined contract creation.
type Deployment struct {
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
	Network string `json:"network"`
}

// Deployer publishes the PaperValidator contract.
type Deployer struct {
	session *Session
	logger  domain.Logger
}

// NewDeployer creates a deployer signing with session's key
func NewDeployer(session *Session, logger domain.Logger) *Deployer {
	return &Deployer{session: session, logger: logger}
}

// Deploy sends the creation transaction and waits until code is at the new
// address.
func (d *Deployer) Deploy(ctx context.Context, bytecode []byte) (*Deployment, error) {
	if len(bytecode) == 0 {
		return nil, apperrors.NewInvalidInputError("Contract bytecode is empty")
	}
	opts, err := d.session.Transactor(ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	conn, err := d.session.Connect(ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	d.logger.Info("Deploying PaperValidator", "network", d.session.NetworkName(), "from", opts.From.Hex())
	address, tx, _, err := bind.DeployContract(opts, parsedABI, bytecode, conn.Backend)
	if err != nil {
		return nil, classifyError(err)
	}

	mined, err := bind.WaitDeployed(ctx, conn.Backend, tx)
	if err != nil {
		return nil, classifyError(err)
	}
	if mined != address {
		d.logger.Warn("Deployed address differs from prediction", "predicted", address.Hex(), "actual", mined.Hex())
	}

	d.logger.Info("PaperValidator deployed", "address", mined.Hex(), "tx", tx.Hash().Hex())
	return &Deployment{
		Address: mined.Hex(),
		TxHash:  tx.Hash().Hex(),
		Network: d.session.NetworkName(),
	}, nil
}

// ParseBytecode reads creation bytecode from either a hex string or a
// compiler artifact with a "bytecode" field.
func ParseBytecode(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apperrors.NewInvalidInputError("Contract bytecode is empty")
	}

	hexCode := string(data)
	if data[0] == '{' {
		var artifact struct {
			Bytecode json.RawMessage `json:"bytecode"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, apperrors.NewInvalidInputError("Invalid contract artifact", err.Error())
		}
		code, err := artifactBytecode(artifact.Bytecode)
		if err != nil {
			return nil, err
		}
		hexCode = code
	}

	if !isHex(hexCode) {
		return nil, apperrors.NewInvalidInputError("Contract bytecode is not hex encoded")
	}
	code := common.FromHex(hexCode)
	if len(code) == 0 {
		return nil, apperrors.NewInvalidInputError("Contract bytecode is empty")
	}
	return code, nil
}

// artifactBytecode accepts both the Hardhat form ("bytecode": "0x...") and
// the solc standard-json form ("bytecode": {"object": "..."}).
func artifactBytecode(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Object == "" {
		return "", apperrors.NewInvalidInputError("Contract artifact has no bytecode", fmt.Sprint(err))
	}
	return obj.Object, nil
}

func isHex(s string) bool {
	if has0x := len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'); has0x {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return false
	}
	for _, c := range []byte(s) {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
