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

// Package feemarket implements the EIP-1559 base fee rules and the price
// calculators used to compare transactions under the legacy and fee-market
// regimes.
package feemarket

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// ErrFeeCapTooLow is returned if a transaction's fee cap is below the base fee
// it is priced against.
var ErrFeeCapTooLow = errors.New("max fee per gas less than block base fee")

// FeeMarket holds the parameters of an EIP-1559 style fee market.
type FeeMarket struct {
	ForkBlock            uint64   // first block carrying a base fee
	ElasticityMultiplier uint64   // ratio of gas limit to gas target
	ChangeDenominator    uint64   // bounds the base fee change per block
	InitialBaseFee       *big.Int // base fee of the fork block
}

// London returns the mainnet fee market activated at the given block.
func London(forkBlock uint64) *FeeMarket {
	return &FeeMarket{
		ForkBlock:            forkBlock,
		ElasticityMultiplier: params.ElasticityMultiplier,
		ChangeDenominator:    params.BaseFeeChangeDenominator,
		InitialBaseFee:       big.NewInt(params.InitialBaseFee),
	}
}

func (fm *FeeMarket) String() string {
	return fmt.Sprintf("London(fork: %d, elasticity: %d, denominator: %d, initial: %v)",
		fm.ForkBlock, fm.ElasticityMultiplier, fm.ChangeDenominator, fm.InitialBaseFee)
}

// IsActive reports whether blocks at the given height carry a base fee.
func (fm *FeeMarket) IsActive(number uint64) bool {
	return fm != nil && number >= fm.ForkBlock
}

// GasTarget returns the gas a block with the given limit is expected to use.
func (fm *FeeMarket) GasTarget(gasLimit uint64) uint64 {
	return gasLimit / fm.ElasticityMultiplier
}

// NextBaseFee calculates the base fee of the child of the given header.
func (fm *FeeMarket) NextBaseFee(parent *types.Header) *big.Int {
	// If the current block is the first EIP-1559 block, return the InitialBaseFee.
	if !fm.IsActive(parent.Number.Uint64()) || parent.BaseFee == nil {
		return new(big.Int).Set(fm.InitialBaseFee)
	}

	parentGasTarget := fm.GasTarget(parent.GasLimit)
	// If the parent gasUsed is the same as the target, the baseFee remains unchanged.
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFee)
	}

	var (
		num   = new(big.Int)
		denom = new(big.Int)
	)

	if parent.GasUsed > parentGasTarget {
		// If the parent block used more gas than its target, the baseFee should increase.
		// max(1, parentBaseFee * gasUsedDelta / parentGasTarget / baseFeeChangeDenominator)
		num.SetUint64(parent.GasUsed - parentGasTarget)
		num.Mul(num, parent.BaseFee)
		num.Div(num, denom.SetUint64(parentGasTarget))
		num.Div(num, denom.SetUint64(fm.ChangeDenominator))
		baseFeeDelta := math.BigMax(num, common.Big1)

		return num.Add(parent.BaseFee, baseFeeDelta)
	} else {
		// Otherwise if the parent block used less gas than its target, the baseFee should decrease.
		// max(0, parentBaseFee * gasUsedDelta / parentGasTarget / baseFeeChangeDenominator)
		num.SetUint64(parentGasTarget - parent.GasUsed)
		num.Mul(num, parent.BaseFee)
		num.Div(num, denom.SetUint64(parentGasTarget))
		num.Div(num, denom.SetUint64(fm.ChangeDenominator))
		baseFee := num.Sub(parent.BaseFee, num)

		return math.BigMax(baseFee, common.Big0)
	}
}

// MinNextBaseFee returns the lowest base fee a child of a block with the
// given base fee can carry, reached when the block is empty.
func (fm *FeeMarket) MinNextBaseFee(baseFee *big.Int) *big.Int {
	delta := new(big.Int).Div(baseFee, new(big.Int).SetUint64(fm.ChangeDenominator))
	return delta.Sub(baseFee, delta)
}

// ElasticGasLimit returns the gas limit the delta bound of a child block is
// measured against. At the fork block the parent's legacy limit is scaled up
// by the elasticity multiplier.
func (fm *FeeMarket) ElasticGasLimit(parent *types.Header) uint64 {
	if fm.IsActive(parent.Number.Uint64()) {
		return parent.GasLimit
	}
	return parent.GasLimit * fm.ElasticityMultiplier
}
