package action

import (
	"github.com/ethereum/go-ethereum/common"

	"lending_go/internal/infra"
)

// Wallet is the operating wallet session.
type Wallet interface {
	Connected() bool
	CorrectNetwork() bool
	Address() string
}

// ConfiguredWallet is a Wallet fixed by configuration.
type ConfiguredWallet struct {
	address        common.Address
	connected      bool
	chainID        int64
	networkChainID int64
}

// NewConfiguredWallet treats an empty address as disconnected.
func NewConfiguredWallet(w infra.WalletConfig, n infra.NetworkConfig) *ConfiguredWallet {
	cw := &ConfiguredWallet{chainID: w.ChainID, networkChainID: n.ChainID}
	if common.IsHexAddress(w.Address) {
		cw.address = common.HexToAddress(w.Address)
		cw.connected = true
	}
	return cw
}

func (w *ConfiguredWallet) Connected() bool { return w.connected }

func (w *ConfiguredWallet) CorrectNetwork() bool { return w.chainID == w.networkChainID }

// Address returns the EIP-55 checksummed address, or "" when disconnected.
func (w *ConfiguredWallet) Address() string {
	if !w.connected {
		return ""
	}
	return w.address.Hex()
}
