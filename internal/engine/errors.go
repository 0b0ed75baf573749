package engine

import "errors"

// Error definitions for zero-tolerance error handling. Every operation is
// fail-fast and whole-operation atomic: on any of these, no balance, supply
// or fee field has changed and no event has been emitted.
var (
	// Trade layer
	ErrTradeTooSmall       = errors.New("trade is below the minimum trade amount")
	ErrSlippageExceeded    = errors.New("slippage bound exceeded")
	ErrImbalanceExceeded   = errors.New("trade would push the pool outside its imbalance bounds")
	ErrSameAsset           = errors.New("trade assets must differ")
	ErrInsufficientBalance = errors.New("pool balance cannot cover the trade")

	// Liquidity layer
	ErrDepositsDisabled   = errors.New("deposits are disabled for this asset")
	ErrInsufficientSupply = errors.New("insufficient outstanding LP shares")
	ErrInvalidAmount      = errors.New("amount must be positive")

	// Administrative layer
	ErrNotAuthorized      = errors.New("caller is not authorized")
	ErrCapabilityMismatch = errors.New("admin token does not match this pool")

	// Lifecycle
	ErrPoolNotInitialized  = errors.New("pool is not initialized")
	ErrPoolInitialized     = errors.New("pool is already initialized")
	ErrUnknownAsset        = errors.New("asset is not registered in this pool")
	ErrDuplicateAsset      = errors.New("asset is already registered in this pool")
	ErrAssetCount          = errors.New("asset count is outside the allowed bounds")
	ErrUnsupportedDecimals = errors.New("asset decimals exceed the internal scale")
)
