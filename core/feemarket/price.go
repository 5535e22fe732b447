// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package feemarket

import (
	"fmt"
	"math/big"

	"github.com/chainadmit/chainadmit/core/types"
)

// PriceCalculator computes the price per gas a transaction pays in a block
// with the given base fee.
type PriceCalculator interface {
	Price(tx *types.Transaction, baseFee *big.Int) *big.Int
}

type frontierCalculator struct{}

// Frontier returns the legacy calculator: the stated gas price, whatever the
// base fee.
func Frontier() PriceCalculator { return frontierCalculator{} }

func (frontierCalculator) Price(tx *types.Transaction, _ *big.Int) *big.Int {
	return tx.GasPrice()
}

type londonCalculator struct{}

// LondonCalculator returns the fee-market calculator: min(maxFee, baseFee + tip) for
// dynamic fee transactions and the gas price for legacy ones.
func LondonCalculator() PriceCalculator { return londonCalculator{} }

func (londonCalculator) Price(tx *types.Transaction, baseFee *big.Int) *big.Int {
	price := tx.EffectiveGasPrice(baseFee)
	if price.Sign() < 0 {
		return new(big.Int)
	}
	return price
}

// Target selects the base fee a transaction is priced against.
type Target int

const (
	// AgainstHead prices against the base fee of the sealed chain head.
	AgainstHead Target = iota
	// NextBlock prices against the lowest base fee the next block can carry.
	NextBlock
)

// MinimumPrice returns the price per gas the transaction is guaranteed to pay
// when included on top of head. Without an active fee market the price is
// the one reported by the calculator for a nil base fee.
func MinimumPrice(tx *types.Transaction, fm *FeeMarket, calc PriceCalculator, head *types.Header, target Target) *big.Int {
	if head.BaseFee == nil || !fm.IsActive(head.Number.Uint64()) {
		return calc.Price(tx, nil)
	}
	baseFee := head.BaseFee
	if target == NextBlock {
		baseFee = fm.MinNextBaseFee(baseFee)
	}
	return calc.Price(tx, baseFee)
}

// CheckPrice verifies that a transaction's fee cap covers the base fee.
func CheckPrice(tx *types.Transaction, baseFee *big.Int) error {
	if baseFee == nil {
		return nil
	}
	if feeCap := tx.GasFeeCap(); feeCap.Cmp(baseFee) < 0 {
		return fmt.Errorf("%w: maxFeePerGas: %v, baseFee: %v", ErrFeeCapTooLow, feeCap, baseFee)
	}
	return nil
}
