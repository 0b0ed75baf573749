package analyzer

import (
	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// FeeQuote breaks down the fee charged against one trade's gross notional.
// Internal scale throughout except ProtocolShareNative, which is the
// earmarked protocol revenue narrowed to the fee asset's native precision.
type FeeQuote struct {
	TotalRate             sdkmath.Int // base fee + both volatility surcharges
	NetFee                sdkmath.Int
	ProtocolShareInternal sdkmath.Int
	ProtocolShareNative   sdkmath.Int
	LPShare               sdkmath.Int // NetFee minus the protocol share, stays in the pool
}

// ComputeFee prices the fee for a trade between two assets. notional is the
// gross trade size in the internal scale, denominated in the fee asset;
// feeAssetScaleFactor is that asset's native-to-internal factor.
//
// The protocol share is narrowed to native precision by floor division. The
// discarded remainder stays in the pool balance alongside the LP share; the
// protocol always rounds its own take down, never the pool's.
func ComputeFee(params types.EngineParameters, volIn, volOut, notional, feeAssetScaleFactor sdkmath.Int) (FeeQuote, error) {
	totalRate := params.BaseFeeRate.Add(volIn).Add(volOut)

	netFee, err := utils.Mul(totalRate, notional)
	if err != nil {
		return FeeQuote{}, err
	}

	protocolInternal, err := utils.Mul(params.ProtocolFeeFraction, netFee)
	if err != nil {
		return FeeQuote{}, err
	}

	protocolNative, err := utils.ToNative(protocolInternal, feeAssetScaleFactor)
	if err != nil {
		return FeeQuote{}, err
	}

	return FeeQuote{
		TotalRate:             totalRate,
		NetFee:                netFee,
		ProtocolShareInternal: protocolInternal,
		ProtocolShareNative:   protocolNative,
		LPShare:               netFee.Sub(protocolInternal),
	}, nil
}
