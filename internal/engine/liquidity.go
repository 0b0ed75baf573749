/*

This file contains the liquidity path: single-asset deposits against
per-asset LP share supply, and pro-rata withdrawals. Both paths price the
full basket first, so a stale feed on any asset blocks the operation even
though only one slot's balance moves. Like the trade path, each operation is
split into a pure planning half, exposed as a Quote method, and a commit.

No fee is charged on either path. Fee revenue accrues to LPs only through
trade fees left in the balance, which is why balance/lp_supply never falls
from trading activity alone.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

type depositPlan struct {
	basket     map[types.AssetID]pricedSlot
	newBalance sdkmath.Int
	newSupply  sdkmath.Int
	result     types.DepositResult
}

// planDeposit validates and prices a native-precision deposit. The first
// deposit into an empty slot sets the share to balance ratio at 1:1 in the
// internal scale; later deposits mint pro rata.
func (p *Pool) planDeposit(asset types.AssetID, amount sdkmath.Int) (depositPlan, error) {
	if !p.initialized {
		return depositPlan{}, ErrPoolNotInitialized
	}
	slot, ok := p.slots[asset]
	if !ok {
		return depositPlan{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if !slot.DepositsEnabled {
		return depositPlan{}, fmt.Errorf("%w: %s", ErrDepositsDisabled, asset)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return depositPlan{}, fmt.Errorf("%w: deposit amount", ErrInvalidAmount)
	}

	// Pool valuation requires the full basket; a single stale feed aborts
	// the deposit before anything moves.
	basket, err := p.readBasket()
	if err != nil {
		return depositPlan{}, err
	}

	depositInternal, err := utils.ToInternal(amount, slot.DecimalScaleFactor)
	if err != nil {
		return depositPlan{}, err
	}

	current := basket[asset].slot
	var minted sdkmath.Int
	if current.LPSupply.IsZero() {
		// Bootstrap: first deposit sets the ratio at 1:1.
		minted = depositInternal
	} else {
		minted, err = utils.MulDiv(depositInternal, current.LPSupply, current.Balance)
		if err != nil {
			return depositPlan{}, err
		}
	}
	if !minted.IsPositive() {
		return depositPlan{}, fmt.Errorf("%w: deposit mints no shares", ErrInvalidAmount)
	}

	return depositPlan{
		basket:     basket,
		newBalance: current.Balance.Add(depositInternal),
		newSupply:  current.LPSupply.Add(minted),
		result: types.DepositResult{
			Asset:        asset,
			Amount:       amount,
			SharesMinted: minted,
			Timestamp:    p.gateway.Now(),
		},
	}, nil
}

// Deposit adds a native-precision amount of one asset to the pool and mints
// LP shares for it.
func (p *Pool) Deposit(asset types.AssetID, amount sdkmath.Int) (types.DepositResult, error) {
	plan, err := p.planDeposit(asset, amount)
	if err != nil {
		return types.DepositResult{}, err
	}

	if err := p.ledger.ReceiveFunds(asset, amount); err != nil {
		return types.DepositResult{}, err
	}
	if err := p.ledger.MintShares(asset, plan.result.SharesMinted); err != nil {
		return types.DepositResult{}, err
	}

	p.commitBasket(plan.basket)
	p.slots[asset].Balance = plan.newBalance
	p.slots[asset].LPSupply = plan.newSupply

	result := plan.result
	p.emit(types.EventKindDeposit, result.Timestamp, func(e *types.PoolEvent) { e.Deposit = &result })

	p.logger.Debug().
		Str("asset", string(asset)).
		Str("amount", amount.String()).
		Str("sharesMinted", result.SharesMinted.String()).
		Msg("Deposit committed")
	return result, nil
}

// QuoteDeposit prices a deposit without executing it.
func (p *Pool) QuoteDeposit(asset types.AssetID, amount sdkmath.Int) (types.DepositResult, error) {
	plan, err := p.planDeposit(asset, amount)
	if err != nil {
		return types.DepositResult{}, err
	}
	return plan.result, nil
}

type withdrawPlan struct {
	basket     map[types.AssetID]pricedSlot
	newBalance sdkmath.Int
	newSupply  sdkmath.Int
	result     types.WithdrawResult
}

// planWithdraw validates and prices a share redemption. Redeeming the entire
// supply drains the slot completely so that balance and supply reach zero
// together.
func (p *Pool) planWithdraw(asset types.AssetID, shares sdkmath.Int) (withdrawPlan, error) {
	if !p.initialized {
		return withdrawPlan{}, ErrPoolNotInitialized
	}
	slot, ok := p.slots[asset]
	if !ok {
		return withdrawPlan{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if shares.IsNil() || !shares.IsPositive() {
		return withdrawPlan{}, fmt.Errorf("%w: share amount", ErrInvalidAmount)
	}
	if slot.LPSupply.IsZero() {
		return withdrawPlan{}, fmt.Errorf("%w: %s", ErrInsufficientSupply, asset)
	}
	if shares.GT(slot.LPSupply) {
		return withdrawPlan{}, fmt.Errorf("%w: burn %s of %s outstanding", ErrInsufficientSupply, shares, slot.LPSupply)
	}

	// Fresh prices for every asset are required, matching the deposit path.
	basket, err := p.readBasket()
	if err != nil {
		return withdrawPlan{}, err
	}

	current := basket[asset].slot
	claimInternal, err := utils.MulDiv(shares, current.Balance, current.LPSupply)
	if err != nil {
		return withdrawPlan{}, err
	}
	claimNative, err := utils.ToNative(claimInternal, slot.DecimalScaleFactor)
	if err != nil {
		return withdrawPlan{}, err
	}
	if !claimNative.IsPositive() {
		return withdrawPlan{}, fmt.Errorf("%w: claim narrows to zero", ErrInvalidAmount)
	}

	newSupply := current.LPSupply.Sub(shares)
	var newBalance sdkmath.Int
	if newSupply.IsZero() {
		// Full redemption: clear the slot so balance == 0 iff lp_supply == 0
		// holds. Sub-native dust is unredeemable anyway.
		newBalance = sdkmath.ZeroInt()
	} else {
		removedInternal, err := utils.ToInternal(claimNative, slot.DecimalScaleFactor)
		if err != nil {
			return withdrawPlan{}, err
		}
		newBalance = current.Balance.Sub(removedInternal)
	}

	return withdrawPlan{
		basket:     basket,
		newBalance: newBalance,
		newSupply:  newSupply,
		result: types.WithdrawResult{
			Asset:        asset,
			SharesBurned: shares,
			Amount:       claimNative,
			Timestamp:    p.gateway.Now(),
		},
	}, nil
}

// Withdraw burns LP shares of one asset and pays out the proportional claim
// in the asset's native precision.
func (p *Pool) Withdraw(asset types.AssetID, shares sdkmath.Int) (types.WithdrawResult, error) {
	plan, err := p.planWithdraw(asset, shares)
	if err != nil {
		return types.WithdrawResult{}, err
	}

	if err := p.ledger.BurnShares(asset, shares); err != nil {
		return types.WithdrawResult{}, err
	}
	if err := p.ledger.SendFunds(asset, plan.result.Amount); err != nil {
		return types.WithdrawResult{}, err
	}

	p.commitBasket(plan.basket)
	p.slots[asset].Balance = plan.newBalance
	p.slots[asset].LPSupply = plan.newSupply

	result := plan.result
	p.emit(types.EventKindWithdraw, result.Timestamp, func(e *types.PoolEvent) { e.Withdraw = &result })

	p.logger.Debug().
		Str("asset", string(asset)).
		Str("sharesBurned", shares.String()).
		Str("amount", result.Amount.String()).
		Msg("Withdrawal committed")
	return result, nil
}

// QuoteWithdraw prices a share redemption without executing it.
func (p *Pool) QuoteWithdraw(asset types.AssetID, shares sdkmath.Int) (types.WithdrawResult, error) {
	plan, err := p.planWithdraw(asset, shares)
	if err != nil {
		return types.WithdrawResult{}, err
	}
	return plan.result, nil
}
