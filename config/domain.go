package config

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// VrfConfig holds the signing identity and retry policy of the
// randomness service. The private key is only ever read from the
// environment in deployments.
type VrfConfig struct {
	PrivateKey       string `toml:"private_key" envconfig:"VRF_PRIVATE_KEY"`
	MaxRetries       int    `toml:"max_retries"`
	RetryDelayMillis int    `toml:"retry_delay_millis"`
}

func (c VrfConfig) GetPrivateKey() (*ecdsa.PrivateKey, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "crypto.HexToECDSA")
	}
	return pk, nil
}

// LedgerConfig controls proof-of-work mining of ledger blocks.
// Difficulty is the number of leading zero hex digits a block hash must
// carry.
type LedgerConfig struct {
	Difficulty int `toml:"difficulty"`
}

func NewDefaultVrfConfig() VrfConfig {
	return VrfConfig{
		MaxRetries:       3,
		RetryDelayMillis: 250,
	}
}

func NewDefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Difficulty: 4,
	}
}
