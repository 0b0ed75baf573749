/*

This file contains the trade execution path. Both entry shapes follow the
same state machine: validate oracles for every slot, fold the readings into
volatility state, price the trade off the oracle exchange rate, check the
slippage bound and the imbalance bound, and only then touch the ledger and
the slot table. Any failure before the commit leaves the pool untouched.

The planning half of that machine is also exposed on its own as the Quote
methods, which price a trade and throw the plan away. The estimation layer in
internal/simulations is built on them.

The fee is always charged against the gross notional of the trade in the
internal scale, on the side leaving the pool for exact-in trades and on the
side entering for exact-out trades. The protocol share is narrowed to the fee
asset's native precision by floor division; the LP share and the narrowing
remainder stay in the pool balance.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/analyzer"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// tradeSlots resolves and validates the two moving assets.
func (p *Pool) tradeSlots(assetIn, assetOut types.AssetID) (*types.AssetSlot, *types.AssetSlot, error) {
	if !p.initialized {
		return nil, nil, ErrPoolNotInitialized
	}
	if assetIn == assetOut {
		return nil, nil, ErrSameAsset
	}
	slotIn, ok := p.slots[assetIn]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetIn)
	}
	slotOut, ok := p.slots[assetOut]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetOut)
	}
	return slotIn, slotOut, nil
}

// checkImbalance verifies that after the trade each moving asset's share of
// pool value stays within ±delta of the equal-value allocation. Only the
// bound in the trade's direction is checked, so a trade that reduces an
// existing imbalance always passes.
func (p *Pool) checkImbalance(basket map[types.AssetID]pricedSlot, newBalances map[types.AssetID]sdkmath.Int, assetIn, assetOut types.AssetID) error {
	n := int64(len(p.order))
	totalValue := sdkmath.ZeroInt()
	values := make(map[types.AssetID]sdkmath.Int, len(p.order))
	for _, id := range p.order {
		balance := basket[id].slot.Balance
		if override, ok := newBalances[id]; ok {
			balance = override
		}
		value, err := utils.Mul(balance, basket[id].price)
		if err != nil {
			return err
		}
		values[id] = value
		totalValue = totalValue.Add(value)
	}
	if totalValue.IsZero() {
		return nil
	}

	// ratio_i = value_i * n / totalValue, at internal scale. A perfectly
	// balanced pool has every ratio at exactly Scale.
	upper := utils.Scale.Add(p.params.ImbalanceDelta)
	lower := utils.Scale.Sub(p.params.ImbalanceDelta)

	ratioIn, err := utils.MulDiv(values[assetIn].MulRaw(n), utils.Scale, totalValue)
	if err != nil {
		return err
	}
	if ratioIn.GT(upper) {
		return fmt.Errorf("%w: %s would hold %s of pool value", ErrImbalanceExceeded, assetIn, ratioIn)
	}

	ratioOut, err := utils.MulDiv(values[assetOut].MulRaw(n), utils.Scale, totalValue)
	if err != nil {
		return err
	}
	if ratioOut.LT(lower) {
		return fmt.Errorf("%w: %s would hold %s of pool value", ErrImbalanceExceeded, assetOut, ratioOut)
	}
	return nil
}

// tradePlan carries one fully validated trade from pricing to commit.
type tradePlan struct {
	basket        map[types.AssetID]pricedSlot
	newBalanceIn  sdkmath.Int
	newBalanceOut sdkmath.Int
	result        types.TradeResult
}

// planExactIn validates and prices a fixed-input trade. req.AmountIn is in
// the input asset's native precision; req.Limit, if set, is the minimum
// acceptable output in the output asset's native precision.
func (p *Pool) planExactIn(req types.TradeRequest) (tradePlan, error) {
	slotIn, slotOut, err := p.tradeSlots(req.AssetIn, req.AssetOut)
	if err != nil {
		return tradePlan{}, err
	}
	if req.AmountIn.IsNil() || !req.AmountIn.IsPositive() {
		return tradePlan{}, fmt.Errorf("%w: amount in", ErrInvalidAmount)
	}

	basket, err := p.readBasket()
	if err != nil {
		return tradePlan{}, err
	}

	inInternal, err := utils.ToInternal(req.AmountIn, slotIn.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	if inInternal.LT(slotIn.MinimumTradeAmount) {
		return tradePlan{}, fmt.Errorf("%w: %s in", ErrTradeTooSmall, req.AssetIn)
	}

	// Oracle-anchored exchange: grossOut = amountIn * priceIn / priceOut.
	grossOut, err := utils.MulDiv(inInternal, basket[req.AssetIn].price, basket[req.AssetOut].price)
	if err != nil {
		return tradePlan{}, err
	}
	if grossOut.LT(slotOut.MinimumTradeAmount) {
		return tradePlan{}, fmt.Errorf("%w: %s out", ErrTradeTooSmall, req.AssetOut)
	}

	quote, err := analyzer.ComputeFee(p.params,
		basket[req.AssetIn].slot.VolatilityIndex,
		basket[req.AssetOut].slot.VolatilityIndex,
		grossOut, slotOut.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}

	userOutInternal := grossOut.Sub(quote.NetFee)
	if !userOutInternal.IsPositive() {
		return tradePlan{}, fmt.Errorf("%w: fee consumes the whole output", ErrTradeTooSmall)
	}
	userOutNative, err := utils.ToNative(userOutInternal, slotOut.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	if !userOutNative.IsPositive() {
		return tradePlan{}, fmt.Errorf("%w: output narrows to zero", ErrTradeTooSmall)
	}
	if !req.Limit.IsNil() && userOutNative.LT(req.Limit) {
		return tradePlan{}, fmt.Errorf("%w: out %s < minimum %s", ErrSlippageExceeded, userOutNative, req.Limit)
	}

	// The pool pays the caller and earmarks the protocol share; the LP share
	// and the narrowing dust never leave the balance.
	outflowInternal, err := utils.ToInternal(userOutNative.Add(quote.ProtocolShareNative), slotOut.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	newBalanceOut := basket[req.AssetOut].slot.Balance.Sub(outflowInternal)
	if newBalanceOut.IsNegative() {
		return tradePlan{}, fmt.Errorf("%w: %s", ErrInsufficientBalance, req.AssetOut)
	}
	newBalanceIn := basket[req.AssetIn].slot.Balance.Add(inInternal)

	if err := p.checkImbalance(basket, map[types.AssetID]sdkmath.Int{
		req.AssetIn:  newBalanceIn,
		req.AssetOut: newBalanceOut,
	}, req.AssetIn, req.AssetOut); err != nil {
		return tradePlan{}, err
	}

	return tradePlan{
		basket:        basket,
		newBalanceIn:  newBalanceIn,
		newBalanceOut: newBalanceOut,
		result: types.TradeResult{
			AssetIn:       req.AssetIn,
			AssetOut:      req.AssetOut,
			AmountIn:      req.AmountIn,
			AmountOut:     userOutNative,
			GrossNotional: grossOut,
			FeeRate:       quote.TotalRate,
			NetFee:        quote.NetFee,
			ProtocolFee:   quote.ProtocolShareNative,
			LPFee:         quote.LPShare,
			FeeAsset:      req.AssetOut,
			Timestamp:     p.gateway.Now(),
		},
	}, nil
}

// planExactOut validates and prices a fixed-output trade. req.AmountOut is in
// the output asset's native precision; req.Limit, if set, is the maximum
// acceptable input in the input asset's native precision. The input owed by
// the caller is rounded up when narrowing to native precision.
func (p *Pool) planExactOut(req types.TradeRequest) (tradePlan, error) {
	slotIn, slotOut, err := p.tradeSlots(req.AssetIn, req.AssetOut)
	if err != nil {
		return tradePlan{}, err
	}
	if req.AmountOut.IsNil() || !req.AmountOut.IsPositive() {
		return tradePlan{}, fmt.Errorf("%w: amount out", ErrInvalidAmount)
	}

	basket, err := p.readBasket()
	if err != nil {
		return tradePlan{}, err
	}

	outInternal, err := utils.ToInternal(req.AmountOut, slotOut.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	if outInternal.LT(slotOut.MinimumTradeAmount) {
		return tradePlan{}, fmt.Errorf("%w: %s out", ErrTradeTooSmall, req.AssetOut)
	}
	newBalanceOut := basket[req.AssetOut].slot.Balance.Sub(outInternal)
	if newBalanceOut.IsNegative() {
		return tradePlan{}, fmt.Errorf("%w: %s", ErrInsufficientBalance, req.AssetOut)
	}

	// grossIn = amountOut * priceOut / priceIn, then the fee is added on the
	// entering side.
	grossIn, err := utils.MulDiv(outInternal, basket[req.AssetOut].price, basket[req.AssetIn].price)
	if err != nil {
		return tradePlan{}, err
	}
	if grossIn.LT(slotIn.MinimumTradeAmount) {
		return tradePlan{}, fmt.Errorf("%w: %s in", ErrTradeTooSmall, req.AssetIn)
	}

	quote, err := analyzer.ComputeFee(p.params,
		basket[req.AssetIn].slot.VolatilityIndex,
		basket[req.AssetOut].slot.VolatilityIndex,
		grossIn, slotIn.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}

	totalInInternal := grossIn.Add(quote.NetFee)
	amountInNative, err := utils.ToNativeCeil(totalInInternal, slotIn.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	if !amountInNative.IsPositive() {
		return tradePlan{}, fmt.Errorf("%w: input narrows to zero", ErrTradeTooSmall)
	}
	if !req.Limit.IsNil() && amountInNative.GT(req.Limit) {
		return tradePlan{}, fmt.Errorf("%w: in %s > maximum %s", ErrSlippageExceeded, amountInNative, req.Limit)
	}

	receivedInternal, err := utils.ToInternal(amountInNative, slotIn.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	protocolInternal, err := utils.ToInternal(quote.ProtocolShareNative, slotIn.DecimalScaleFactor)
	if err != nil {
		return tradePlan{}, err
	}
	newBalanceIn := basket[req.AssetIn].slot.Balance.Add(receivedInternal).Sub(protocolInternal)

	if err := p.checkImbalance(basket, map[types.AssetID]sdkmath.Int{
		req.AssetIn:  newBalanceIn,
		req.AssetOut: newBalanceOut,
	}, req.AssetIn, req.AssetOut); err != nil {
		return tradePlan{}, err
	}

	return tradePlan{
		basket:        basket,
		newBalanceIn:  newBalanceIn,
		newBalanceOut: newBalanceOut,
		result: types.TradeResult{
			AssetIn:       req.AssetIn,
			AssetOut:      req.AssetOut,
			AmountIn:      amountInNative,
			AmountOut:     req.AmountOut,
			GrossNotional: grossIn,
			FeeRate:       quote.TotalRate,
			NetFee:        quote.NetFee,
			ProtocolFee:   quote.ProtocolShareNative,
			LPFee:         quote.LPShare,
			FeeAsset:      req.AssetIn,
			Timestamp:     p.gateway.Now(),
		},
	}, nil
}

// commitTrade moves funds through the ledger and assigns the planned state.
func (p *Pool) commitTrade(plan tradePlan) (types.TradeResult, error) {
	if err := p.ledger.ReceiveFunds(plan.result.AssetIn, plan.result.AmountIn); err != nil {
		return types.TradeResult{}, err
	}
	if err := p.ledger.SendFunds(plan.result.AssetOut, plan.result.AmountOut); err != nil {
		return types.TradeResult{}, err
	}

	p.commitBasket(plan.basket)
	p.slots[plan.result.AssetIn].Balance = plan.newBalanceIn
	p.slots[plan.result.AssetOut].Balance = plan.newBalanceOut
	p.slots[plan.result.FeeAsset].CollectedProtocolFees =
		p.slots[plan.result.FeeAsset].CollectedProtocolFees.Add(plan.result.ProtocolFee)

	result := plan.result
	p.emit(types.EventKindTrade, result.Timestamp, func(e *types.PoolEvent) { e.Trade = &result })

	p.logger.Debug().
		Str("assetIn", string(result.AssetIn)).
		Str("assetOut", string(result.AssetOut)).
		Str("amountIn", result.AmountIn.String()).
		Str("amountOut", result.AmountOut.String()).
		Str("feeRate", result.FeeRate.String()).
		Msg("Trade committed")
	return result, nil
}

// SwapExactIn executes a trade with a fixed input quantity.
func (p *Pool) SwapExactIn(req types.TradeRequest) (types.TradeResult, error) {
	plan, err := p.planExactIn(req)
	if err != nil {
		return types.TradeResult{}, err
	}
	return p.commitTrade(plan)
}

// SwapExactOut executes a trade with a fixed output quantity.
func (p *Pool) SwapExactOut(req types.TradeRequest) (types.TradeResult, error) {
	plan, err := p.planExactOut(req)
	if err != nil {
		return types.TradeResult{}, err
	}
	return p.commitTrade(plan)
}

// QuoteExactIn prices a fixed-input trade without executing it. Balances,
// volatility state and the ledger are untouched and no event is emitted.
func (p *Pool) QuoteExactIn(req types.TradeRequest) (types.TradeResult, error) {
	plan, err := p.planExactIn(req)
	if err != nil {
		return types.TradeResult{}, err
	}
	return plan.result, nil
}

// QuoteExactOut prices a fixed-output trade without executing it.
func (p *Pool) QuoteExactOut(req types.TradeRequest) (types.TradeResult, error) {
	plan, err := p.planExactOut(req)
	if err != nil {
		return types.TradeResult{}, err
	}
	return plan.result, nil
}
