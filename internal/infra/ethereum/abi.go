// Package ethereum talks to the PaperValidator registry contract over
// JSON-RPC.
package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// PaperValidatorABI is the interface of contracts/PaperValidator.sol.
const PaperValidatorABI = `[
	{
		"inputs": [{"internalType": "bytes32", "name": "paperHash", "type": "bytes32"}],
		"name": "validatePaper",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "bytes32", "name": "paperHash", "type": "bytes32"}],
		"name": "isPaperValidated",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "bytes32", "name": "paperHash", "type": "bytes32"}],
		"name": "getPaperDetails",
		"outputs": [
			{"internalType": "bool", "name": "isValidated", "type": "bool"},
			{"internalType": "address", "name": "validator", "type": "address"},
			{"internalType": "uint256", "name": "timestamp", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "bytes32", "name": "paperHash", "type": "bytes32"},
			{"indexed": true, "internalType": "address", "name": "validator", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
		],
		"name": "PaperValidated",
		"type": "event"
	}
]`

// Contract method names.
const (
	methodValidate    = "validatePaper"
	methodIsValidated = "isPaperValidated"
	methodDetails     = "getPaperDetails"
)

var parsedABI = mustParseABI(PaperValidatorABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("ethereum: invalid contract ABI: " + err.Error())
	}
	return parsed
}
