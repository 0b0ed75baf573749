package ledger

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInsufficientCustody = errors.New("insufficient custody balance")
	ErrInsufficientShares  = errors.New("insufficient outstanding shares")
	ErrAmountNotPositive   = errors.New("amount must be positive")
)

// MemoryLedger is an in-process Ledger used by tests and the standalone
// daemon. It tracks custody balances and outstanding LP shares per asset.
type MemoryLedger struct {
	mu      sync.Mutex
	custody map[types.AssetID]sdkmath.Int
	shares  map[types.AssetID]sdkmath.Int
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		custody: make(map[types.AssetID]sdkmath.Int),
		shares:  make(map[types.AssetID]sdkmath.Int),
	}
}

func (l *MemoryLedger) balanceLocked(m map[types.AssetID]sdkmath.Int, asset types.AssetID) sdkmath.Int {
	if v, ok := m[asset]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

// ReceiveFunds takes custody of a native-precision amount.
func (l *MemoryLedger) ReceiveFunds(asset types.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: receive %s of %s", ErrAmountNotPositive, amount, asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custody[asset] = l.balanceLocked(l.custody, asset).Add(amount)
	return nil
}

// SendFunds releases a native-precision amount from custody.
func (l *MemoryLedger) SendFunds(asset types.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: send %s of %s", ErrAmountNotPositive, amount, asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balanceLocked(l.custody, asset)
	if current.LT(amount) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientCustody, asset, current, amount)
	}
	l.custody[asset] = current.Sub(amount)
	return nil
}

// MintShares issues internal-scale LP shares.
func (l *MemoryLedger) MintShares(asset types.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: mint %s shares of %s", ErrAmountNotPositive, amount, asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shares[asset] = l.balanceLocked(l.shares, asset).Add(amount)
	return nil
}

// BurnShares retires internal-scale LP shares.
func (l *MemoryLedger) BurnShares(asset types.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: burn %s shares of %s", ErrAmountNotPositive, amount, asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balanceLocked(l.shares, asset)
	if current.LT(amount) {
		return fmt.Errorf("%w: %s has %s outstanding, burn %s", ErrInsufficientShares, asset, current, amount)
	}
	l.shares[asset] = current.Sub(amount)
	return nil
}

// Custody returns the current custody balance for an asset.
func (l *MemoryLedger) Custody(asset types.AssetID) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(l.custody, asset)
}

// OutstandingShares returns the outstanding LP shares for an asset.
func (l *MemoryLedger) OutstandingShares(asset types.AssetID) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(l.shares, asset)
}

// Close is a no-op for the in-memory ledger.
func (l *MemoryLedger) Close() error {
	return nil
}
