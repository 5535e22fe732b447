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
	"errors"
	"math/big"
	"testing"

	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestNextBaseFee assumes all blocks are 1559-blocks
func TestNextBaseFee(t *testing.T) {
	fm := London(5)
	tests := []struct {
		parentBaseFee   int64
		parentGasLimit  uint64
		parentGasUsed   uint64
		expectedBaseFee int64
	}{
		{params.InitialBaseFee, 20000000, 10000000, params.InitialBaseFee}, // usage == target
		{params.InitialBaseFee, 20000000, 9000000, 987500000},              // usage below target
		{params.InitialBaseFee, 20000000, 11000000, 1012500000},            // usage above target
		{params.InitialBaseFee, 20000000, 0, 875000000},                    // empty parent
	}
	for i, test := range tests {
		parent := &types.Header{
			Number:   big.NewInt(32),
			GasLimit: test.parentGasLimit,
			GasUsed:  test.parentGasUsed,
			BaseFee:  big.NewInt(test.parentBaseFee),
		}
		if have, want := fm.NextBaseFee(parent), big.NewInt(test.expectedBaseFee); have.Cmp(want) != 0 {
			t.Errorf("test %d: have %d  want %d, ", i, have, want)
		}
	}
}

func TestNextBaseFeeAtFork(t *testing.T) {
	fm := London(5)
	parent := &types.Header{Number: big.NewInt(4), GasLimit: 10000000, GasUsed: 10000000}
	if have := fm.NextBaseFee(parent); have.Int64() != params.InitialBaseFee {
		t.Fatalf("fork block base fee: have %v, want %d", have, params.InitialBaseFee)
	}
	if have := fm.ElasticGasLimit(parent); have != 20000000 {
		t.Fatalf("elastic gas limit at fork: have %d, want 20000000", have)
	}
	parent.Number = big.NewInt(5)
	if have := fm.ElasticGasLimit(parent); have != 10000000 {
		t.Fatalf("elastic gas limit after fork: have %d, want 10000000", have)
	}
	var legacy *FeeMarket
	if legacy.IsActive(100) {
		t.Fatal("nil fee market reported active")
	}
}

func dynamicTx(feeCap, tip uint64) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		GasFeeCap: new(big.Int).SetUint64(feeCap),
		GasTipCap: new(big.Int).SetUint64(tip),
		Gas:       21000,
	})
}

func TestPriceCalculators(t *testing.T) {
	legacy := types.NewTx(&types.LegacyTx{GasPrice: big.NewInt(42), Gas: 21000})
	require.Equal(t, int64(42), Frontier().Price(legacy, big.NewInt(100)).Int64())
	require.Equal(t, int64(42), LondonCalculator().Price(legacy, big.NewInt(100)).Int64())

	tx := dynamicTx(1000, 50)
	require.Equal(t, int64(1000), LondonCalculator().Price(tx, nil).Int64())
	require.Equal(t, int64(850), LondonCalculator().Price(tx, big.NewInt(800)).Int64())
}

func TestMinimumPriceTargets(t *testing.T) {
	var (
		fm   = London(0)
		calc = LondonCalculator()
		tx   = dynamicTx(1000, 50)
		head = &types.Header{Number: big.NewInt(10), BaseFee: big.NewInt(800)}
	)
	if have := MinimumPrice(tx, fm, calc, head, AgainstHead); have.Int64() != 850 {
		t.Fatalf("head price: have %v, want 850", have)
	}
	// 800 - 800/8 = 700 is the lowest base fee the next block may carry.
	if have := MinimumPrice(tx, fm, calc, head, NextBlock); have.Int64() != 750 {
		t.Fatalf("next block price: have %v, want 750", have)
	}
	legacyHead := &types.Header{Number: big.NewInt(10)}
	if have := MinimumPrice(tx, nil, Frontier(), legacyHead, NextBlock); have.Int64() != 1000 {
		t.Fatalf("pre fee-market price: have %v, want 1000", have)
	}
}

func TestFeeMarketPriceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			feeCap  = rapid.Uint64Range(1, 1_000_000_000_000).Draw(t, "feeCap")
			tip     = rapid.Uint64Range(0, feeCap).Draw(t, "tip")
			baseFee = rapid.Uint64Range(0, feeCap).Draw(t, "baseFee")
			tx      = dynamicTx(feeCap, tip)
			bf      = new(big.Int).SetUint64(baseFee)
		)
		want := baseFee + tip
		if want > feeCap {
			want = feeCap
		}
		if have := LondonCalculator().Price(tx, bf); !have.IsUint64() || have.Uint64() != want {
			t.Fatalf("price mismatch: have %v, want %d", have, want)
		}
		if err := CheckPrice(tx, bf); err != nil {
			t.Fatalf("base fee %d within fee cap %d rejected: %v", baseFee, feeCap, err)
		}
		above := new(big.Int).SetUint64(feeCap)
		above.Add(above, new(big.Int).SetUint64(rapid.Uint64Range(1, 1_000_000).Draw(t, "excess")))
		if err := CheckPrice(tx, above); !errors.Is(err, ErrFeeCapTooLow) {
			t.Fatalf("base fee %v above fee cap %d accepted: %v", above, feeCap, err)
		}
	})
}
