package ledger

import (
	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/types"
)

// Ledger defines the interface for the value custody layer the pool settles
// against. This interface abstracts away the hosting environment's token
// custody and share token mechanics, allowing for different implementations
// (in-memory, chain-backed, simulation).
//
// The engine invokes these only at commit time, after every validation has
// passed, and treats them as infallible once invoked: an implementation must
// verify funds availability up front rather than fail partway through a
// commit.
type Ledger interface {
	// ReceiveFunds takes custody of a native-precision quantity of an asset.
	ReceiveFunds(asset types.AssetID, amount sdkmath.Int) error

	// SendFunds releases a native-precision quantity of an asset from
	// custody to the operation's counterparty.
	SendFunds(asset types.AssetID, amount sdkmath.Int) error

	// MintShares issues internal-scale LP shares for an asset.
	MintShares(asset types.AssetID, amount sdkmath.Int) error

	// BurnShares retires internal-scale LP shares for an asset.
	BurnShares(asset types.AssetID, amount sdkmath.Int) error

	// Close cleans up any resources used by the ledger.
	Close() error
}
