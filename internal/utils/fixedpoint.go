/*
This file contains the fixed point arithmetic used by every pricing component.

All cross-asset math is normalized to a shared 12 decimal internal scale before
any comparison or fee computation. Every operation truncates toward zero, and
intermediates are widened before narrowing so that chained multiplications
cannot silently wrap.
*/

package utils

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// InternalDecimals is the precision of the shared internal scale.
const InternalDecimals = 12

// Error definitions for zero-tolerance error handling
var (
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrNegativeAmount     = errors.New("amount is negative")
)

var (
	scaleBig   = new(big.Int).Exp(big.NewInt(10), big.NewInt(InternalDecimals), nil)
	scaleSqBig = new(big.Int).Mul(scaleBig, scaleBig)

	// Scale is the internal fixed point scale, 10^12. A rate of 1.0 is Scale,
	// a rate of 0.1% is Scale/1000.
	Scale = sdkmath.NewIntFromBigInt(new(big.Int).Set(scaleBig))
)

// maxBits bounds every result to the sdkmath.Int working width.
const maxBits = 256

func checked(result *big.Int) (sdkmath.Int, error) {
	if result.BitLen() > maxBits {
		return sdkmath.Int{}, ErrArithmeticOverflow
	}
	return sdkmath.NewIntFromBigInt(result), nil
}

// Mul returns a*b/Scale, truncated toward zero.
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return checked(product.Quo(product, scaleBig))
}

// Mul3 returns a*b*c/Scale^2, truncated toward zero. The full triple product
// is formed before dividing so no precision is lost in the intermediate steps.
func Mul3(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	product.Mul(product, c.BigInt())
	return checked(product.Quo(product, scaleSqBig))
}

// MulDiv returns a*b/c, truncated toward zero, with the product widened before
// the division.
func MulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	if c.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return checked(product.Quo(product, c.BigInt()))
}

// ToInternal widens a native integer amount to the internal scale using the
// asset's decimal scale factor (internal = native * factor).
func ToInternal(native, scaleFactor sdkmath.Int) (sdkmath.Int, error) {
	if native.IsNegative() {
		return sdkmath.Int{}, ErrNegativeAmount
	}
	product := new(big.Int).Mul(native.BigInt(), scaleFactor.BigInt())
	return checked(product)
}

// ToNative narrows an internal scale amount to the asset's native integer
// precision by floor division. The discarded remainder is an intentional
// round-down: the protocol keeps the dust, callers never receive it.
func ToNative(internal, scaleFactor sdkmath.Int) (sdkmath.Int, error) {
	if scaleFactor.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	if internal.IsNegative() {
		return sdkmath.Int{}, ErrNegativeAmount
	}
	return internal.Quo(scaleFactor), nil
}

// ToNativeCeil narrows an internal scale amount to native precision, rounding
// any remainder up. Used when narrowing a quantity the caller owes the pool,
// so the rounding never favors the caller.
func ToNativeCeil(internal, scaleFactor sdkmath.Int) (sdkmath.Int, error) {
	if scaleFactor.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	if internal.IsNegative() {
		return sdkmath.Int{}, ErrNegativeAmount
	}
	quo, rem := new(big.Int).QuoRem(internal.BigInt(), scaleFactor.BigInt(), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return checked(quo)
}

// PowTen returns 10^exp as an Int. Used for oracle scale factors and asset
// decimal scale factors.
func PowTen(exp int) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
}
