package chain

import (
	"math/big"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/shopspring/decimal"
)

var (
	weiPerCoin   = decimal.New(1, 18)
	minorPerCoin = decimal.NewFromInt(config.TotalDecimal)
)

// MinorToWei converts ledger minor units to wei.
func MinorToWei(minor int64) *big.Int {
	return decimal.NewFromInt(minor).Mul(weiPerCoin).Div(minorPerCoin).BigInt()
}

// WeiToMinor converts wei to ledger minor units. The result keeps any
// fraction so that callers comparing amounts see inexact payments.
func WeiToMinor(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Mul(minorPerCoin).Div(weiPerCoin)
}
