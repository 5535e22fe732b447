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

package rules

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/chainadmit/chainadmit/consensus"
	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Difficulty: ethash.FrontierCalculator, PoW: ethash.NewFaker()}

// makeChain returns a parent and a child header passing the mainnet rules
// at the returned local time.
func makeChain() (parent, child *types.Header, ctx *Context) {
	parent = &types.Header{
		UncleHash:  types.EmptyUncleHash,
		Number:     big.NewInt(100),
		Time:       1000,
		Difficulty: big.NewInt(2048 * 1000),
		GasLimit:   8_000_000,
	}
	child = &types.Header{
		ParentHash: parent.Hash(),
		UncleHash:  types.EmptyUncleHash,
		Number:     big.NewInt(101),
		Time:       1005,
		GasLimit:   8_000_000,
		GasUsed:    1_000_000,
		Extra:      []byte("chainadmit"),
	}
	child.Difficulty = ethash.FrontierCalculator(child.Time, parent)
	return parent, child, &Context{Time: 1010}
}

// failingRules evaluates every rule of the set on its own and returns the
// names of the ones rejecting the header.
func failingRules(set *RuleSet, header, parent *types.Header, ctx *Context) []string {
	var failed []string
	for _, rule := range set.Rules() {
		if rule.Validate(header, parent, ctx) != nil {
			failed = append(failed, rule.Name())
		}
	}
	return failed
}

func TestMainnetValidHeader(t *testing.T) {
	parent, child, ctx := makeChain()
	set := MainnetHeaderValidator(testParams).Build()
	if err := set.Validate(child, parent, ctx); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}
	require.Empty(t, failingRules(set, child, parent, ctx))
}

func TestSingleFieldCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(h *types.Header, ctx *Context)
		rule    string
		err     error
	}{
		{"difficulty", func(h *types.Header, _ *Context) { h.Difficulty = new(big.Int).Add(h.Difficulty, common.Big1) }, "CalculatedDifficulty", consensus.ErrInvalidDifficulty},
		{"parent hash", func(h *types.Header, _ *Context) { h.ParentHash[0] ^= 0xff }, "Ancestry", consensus.ErrInvalidParentHash},
		{"number", func(h *types.Header, _ *Context) { h.Number = big.NewInt(102) }, "Ancestry", consensus.ErrInvalidNumber},
		{"gas limit delta", func(h *types.Header, _ *Context) { h.GasLimit = 8_000_000 + 8_000_000/1024 }, "GasLimitRangeAndDelta", consensus.ErrInvalidGasLimit},
		{"gas used", func(h *types.Header, _ *Context) { h.GasUsed = h.GasLimit + 1 }, "GasUsage", consensus.ErrInvalidGasUsed},
		{"timestamp", func(h *types.Header, _ *Context) { h.Time = 1000 }, "TimestampMoreRecentThanParent", consensus.ErrOlderBlockTime},
		{"future", func(_ *types.Header, ctx *Context) { ctx.Time = 1005 - 16 }, "TimestampBoundedByFuture", consensus.ErrFutureBlock},
		{"extra", func(h *types.Header, _ *Context) { h.Extra = bytes.Repeat([]byte{1}, 33) }, "ExtraDataMaxLength", consensus.ErrExtraDataTooLong},
	}
	set := MainnetHeaderValidator(testParams).Build()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, child, ctx := makeChain()
			tt.corrupt(child, ctx)

			err := set.Validate(child, parent, ctx)
			var failure *Failure
			require.True(t, errors.As(err, &failure), "have %v, want *Failure", err)
			require.Equal(t, "mainnet", failure.RuleSet)
			require.Equal(t, tt.rule, failure.Rule)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, []string{tt.rule}, failingRules(set, child, parent, ctx))
		})
	}
}

func TestProofOfWorkFailure(t *testing.T) {
	parent, child, ctx := makeChain()
	p := testParams
	p.PoW = ethash.NewFakeFailer(101)
	set := MainnetHeaderValidator(p).Build()

	err := set.Validate(child, parent, ctx)
	require.ErrorIs(t, err, consensus.ErrInvalidPoW)
	require.Equal(t, []string{"ProofOfWork"}, failingRules(set, child, parent, ctx))
}

func TestProofOfWorkSealed(t *testing.T) {
	parent, child, ctx := makeChain()
	p := Params{
		Difficulty: func(uint64, *types.Header) *big.Int { return big.NewInt(16) },
		PoW:        ethash.NewVerifier(ethash.KeccakHasher{}),
	}
	child.Difficulty = big.NewInt(16)
	require.True(t, ethash.Seal(child, ethash.KeccakHasher{}, ethash.DefaultEpochs{}, false, 10_000))

	set := MainnetHeaderValidator(p).Build()
	require.NoError(t, set.Validate(child, parent, ctx))

	child.MixDigest[0] ^= 0xff
	require.ErrorIs(t, set.Validate(child, parent, ctx), consensus.ErrInvalidPoW)
}

func TestGasLimitBounds(t *testing.T) {
	parent, child, ctx := makeChain()
	rule := GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}

	child.GasLimit = params.MinGasLimit - 1
	require.ErrorIs(t, rule.Validate(child, parent, ctx), consensus.ErrInvalidGasLimit)

	child.GasLimit = 8_000_000 + 8_000_000/1024 - 1
	require.NoError(t, rule.Validate(child, parent, ctx))
	child.GasLimit = 8_000_000 - 8_000_000/1024 + 1
	require.NoError(t, rule.Validate(child, parent, ctx))
	child.GasLimit = 8_000_000 - 8_000_000/1024
	require.ErrorIs(t, rule.Validate(child, parent, ctx), consensus.ErrInvalidGasLimit)
}

func TestBuildIsImmutable(t *testing.T) {
	builder := MainnetHeaderValidator(testParams)
	set := builder.Build()
	builder.Add(ExtraDataConstant(params.DAOForkBlockExtra))

	require.Len(t, set.Rules(), 8)
	require.Len(t, builder.Build().Rules(), 9)
}

func TestGenesisBypass(t *testing.T) {
	set := MainnetHeaderValidator(testParams).Build()
	genesis := &types.Header{Number: big.NewInt(0), Extra: bytes.Repeat([]byte{1}, 64)}
	require.NoError(t, set.Validate(genesis, nil, &Context{}))

	_, child, ctx := makeChain()
	require.ErrorIs(t, set.Validate(child, nil, ctx), consensus.ErrUnknownAncestor)
}

func TestDAOExtraData(t *testing.T) {
	parent, child, ctx := makeChain()
	set := DAOHeaderValidator(testParams).Build()
	require.Equal(t, "dao", set.Name())

	err := set.Validate(child, parent, ctx)
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "ConstantField(extraData)", failure.Rule)
	require.ErrorIs(t, err, consensus.ErrBadForkMarker)

	child.Extra = common.CopyBytes(params.DAOForkBlockExtra)
	require.NoError(t, set.Validate(child, parent, ctx))
}

func TestClassicHashPin(t *testing.T) {
	set := ClassicHeaderValidator(testParams).Build()

	// Away from the fork height the classic rules match the mainnet ones.
	parent, child, ctx := makeChain()
	require.NoError(t, set.Validate(child, parent, ctx))

	parent.Number = new(big.Int).Sub(params.ClassicForkBlock, common.Big1)
	child.ParentHash = parent.Hash()
	child.Number = new(big.Int).Set(params.ClassicForkBlock)
	child.Difficulty = ethash.FrontierCalculator(child.Time, parent)

	err := set.Validate(child, parent, ctx)
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "ConstantField(hash)", failure.Rule)
	require.ErrorIs(t, err, consensus.ErrBadForkMarker)
	require.Equal(t, []string{"ConstantField(hash)"}, failingRules(set, child, parent, ctx))

	require.NoError(t, HashConstantAt(params.ClassicForkBlock, child.Hash()).Validate(child, parent, ctx))
	require.Error(t, HashConstant(params.ClassicForkBlockHash).Validate(child, parent, ctx))
}

func TestOmmerRulesIgnoreClock(t *testing.T) {
	for _, set := range []*RuleSet{
		OmmerHeaderValidator(testParams).Build(),
		LondonOmmerHeaderValidator(testParams).Build(),
	} {
		for _, rule := range set.Rules() {
			if rule.Name() == "TimestampBoundedByFuture" {
				t.Fatalf("%s: ommer rules bound the timestamp by the local clock", set.Name())
			}
		}
	}
	parent, child, _ := makeChain()
	require.NoError(t, OmmerHeaderValidator(testParams).Build().Validate(child, parent, &Context{Time: 0}))
}

func makeLondonChain(fm *feemarket.FeeMarket) (parent, child *types.Header, ctx *Context) {
	parent = &types.Header{
		UncleHash:  types.EmptyUncleHash,
		Number:     big.NewInt(100),
		Time:       1000,
		Difficulty: big.NewInt(2048 * 1000),
		GasLimit:   30_000_000,
		GasUsed:    20_000_000,
		BaseFee:    big.NewInt(params.InitialBaseFee),
	}
	child = &types.Header{
		ParentHash: parent.Hash(),
		UncleHash:  types.EmptyUncleHash,
		Number:     big.NewInt(101),
		Time:       1012,
		GasLimit:   30_000_000,
		BaseFee:    fm.NextBaseFee(parent),
	}
	child.Difficulty = ethash.LondonCalculator(child.Time, parent)
	return parent, child, &Context{Time: 1012, FeeMarket: fm}
}

func TestLondonHeader(t *testing.T) {
	fm := feemarket.London(0)
	p := Params{Difficulty: ethash.LondonCalculator, PoW: ethash.NewFaker()}
	set := LondonHeaderValidator(p).Build()

	parent, child, ctx := makeLondonChain(fm)
	require.Equal(t, big.NewInt(1_041_666_666), child.BaseFee)
	require.NoError(t, set.Validate(child, parent, ctx))

	// Wrong base fee
	child.BaseFee = big.NewInt(params.InitialBaseFee)
	err := set.Validate(child, parent, ctx)
	require.ErrorIs(t, err, consensus.ErrInvalidBaseFee)
	require.Equal(t, []string{"FeeMarketGasPrice"}, failingRules(set, child, parent, ctx))

	// Missing base fee is caught by the fee-market seal check first.
	child.BaseFee = nil
	err = set.Validate(child, parent, ctx)
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "ProofOfWork", failure.Rule)
	require.ErrorIs(t, err, consensus.ErrMissingBaseFee)
}

func TestLondonForkBlockGasLimit(t *testing.T) {
	fm := feemarket.London(101)
	p := Params{Difficulty: ethash.LondonCalculator, PoW: ethash.NewFaker()}

	parent, child, ctx := makeLondonChain(fm)
	parent.GasLimit = 15_000_000
	parent.GasUsed = 0
	parent.BaseFee = nil
	child.ParentHash = parent.Hash()
	child.Difficulty = ethash.LondonCalculator(child.Time, parent)
	child.BaseFee = fm.NextBaseFee(parent)

	require.Equal(t, big.NewInt(params.InitialBaseFee), child.BaseFee)
	require.NoError(t, LondonHeaderValidator(p).Build().Validate(child, parent, ctx))

	// The legacy bound does not double the parent's limit.
	legacy := GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}
	require.ErrorIs(t, legacy.Validate(child, parent, &Context{Time: ctx.Time}), consensus.ErrInvalidGasLimit)
}

func TestFeeMarketGasPriceBeforeFork(t *testing.T) {
	parent, child, ctx := makeChain()
	rule := FeeMarketGasPrice{}
	require.NoError(t, rule.Validate(child, parent, ctx))

	child.BaseFee = big.NewInt(1)
	require.ErrorIs(t, rule.Validate(child, parent, ctx), consensus.ErrUnexpectedBaseFee)
}
