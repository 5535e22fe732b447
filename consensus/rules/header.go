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
	"math/big"

	"github.com/chainadmit/chainadmit/consensus"
	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CalculatedDifficulty requires the header difficulty to equal the one derived
// from the parent by the fork's difficulty algorithm.
type CalculatedDifficulty struct {
	Calculator ethash.Calculator
}

func (CalculatedDifficulty) Name() string { return "CalculatedDifficulty" }

func (r CalculatedDifficulty) Validate(header, parent *types.Header, _ *Context) error {
	want := r.Calculator(header.Time, parent)
	if header.Difficulty == nil || header.Difficulty.Cmp(want) != 0 {
		return fail(r, consensus.ErrInvalidDifficulty, header.Difficulty, want)
	}
	return nil
}

// Ancestry requires the header to reference its parent by hash and to be
// numbered directly after it.
type Ancestry struct{}

func (Ancestry) Name() string { return "Ancestry" }

func (r Ancestry) Validate(header, parent *types.Header, _ *Context) error {
	if hash := parent.Hash(); header.ParentHash != hash {
		return fail(r, consensus.ErrInvalidParentHash, header.ParentHash, hash)
	}
	if header.Number.Uint64() != parent.Number.Uint64()+1 {
		return fail(r, consensus.ErrInvalidNumber, header.Number, parent.Number.Uint64()+1)
	}
	return nil
}

// GasLimitRangeAndDelta bounds the gas limit to [Min, Max] and its change from
// the parent to 1/1024 of the parent limit. Under an active fee market the
// parent limit is measured in elastic terms.
type GasLimitRangeAndDelta struct {
	Min uint64
	Max uint64
}

func (GasLimitRangeAndDelta) Name() string { return "GasLimitRangeAndDelta" }

func (r GasLimitRangeAndDelta) Validate(header, parent *types.Header, ctx *Context) error {
	if header.GasLimit < r.Min {
		return fail(r, consensus.ErrInvalidGasLimit, header.GasLimit, r.Min)
	}
	if header.GasLimit > r.Max {
		return fail(r, consensus.ErrInvalidGasLimit, header.GasLimit, r.Max)
	}
	parentLimit := parent.GasLimit
	if ctx.FeeMarket.IsActive(header.Number.Uint64()) {
		parentLimit = ctx.FeeMarket.ElasticGasLimit(parent)
	}
	diff := int64(parentLimit) - int64(header.GasLimit)
	if diff < 0 {
		diff *= -1
	}
	if limit := parentLimit / params.GasLimitBoundDivisor; uint64(diff) >= limit {
		return fail(r, consensus.ErrInvalidGasLimit, header.GasLimit, parentLimit)
	}
	return nil
}

// GasUsage requires the gas used not to exceed the gas limit.
type GasUsage struct{}

func (GasUsage) Name() string { return "GasUsage" }

func (r GasUsage) Validate(header, _ *types.Header, _ *Context) error {
	if header.GasUsed > header.GasLimit {
		return fail(r, consensus.ErrInvalidGasUsed, header.GasUsed, header.GasLimit)
	}
	return nil
}

// TimestampMoreRecentThanParent requires the header to be at least MinSeconds
// younger than its parent.
type TimestampMoreRecentThanParent struct {
	MinSeconds uint64
}

func (TimestampMoreRecentThanParent) Name() string { return "TimestampMoreRecentThanParent" }

func (r TimestampMoreRecentThanParent) Validate(header, parent *types.Header, _ *Context) error {
	if header.Time < parent.Time+r.MinSeconds {
		return fail(r, consensus.ErrOlderBlockTime, header.Time, parent.Time+r.MinSeconds)
	}
	return nil
}

// TimestampBoundedByFuture rejects headers more than ToleranceSeconds ahead of
// the local clock.
type TimestampBoundedByFuture struct {
	ToleranceSeconds uint64
}

func (TimestampBoundedByFuture) Name() string { return "TimestampBoundedByFuture" }

func (r TimestampBoundedByFuture) Validate(header, _ *types.Header, ctx *Context) error {
	if header.Time > ctx.Time+r.ToleranceSeconds {
		return fail(r, consensus.ErrFutureBlock, header.Time, ctx.Time+r.ToleranceSeconds)
	}
	return nil
}

// ExtraDataMaxLength caps the size of the extra-data field.
type ExtraDataMaxLength struct {
	Max uint64
}

func (ExtraDataMaxLength) Name() string { return "ExtraDataMaxLength" }

func (r ExtraDataMaxLength) Validate(header, _ *types.Header, _ *Context) error {
	if uint64(len(header.Extra)) > r.Max {
		return fail(r, consensus.ErrExtraDataTooLong, len(header.Extra), r.Max)
	}
	return nil
}

// ProofOfWork checks the seal through the injected verifier. In fee-market
// mode the header must carry a base fee, which is then part of the digest.
type ProofOfWork struct {
	Verifier  ethash.Verifier
	Epochs    ethash.EpochCalculator
	FeeMarket bool
}

func (ProofOfWork) Name() string { return "ProofOfWork" }

func (r ProofOfWork) Validate(header, _ *types.Header, _ *Context) error {
	if r.FeeMarket && header.BaseFee == nil {
		return fail(r, consensus.ErrMissingBaseFee, nil, nil)
	}
	number := header.Number.Uint64()
	if !r.Verifier.Verify(header, ethash.SealHash(header, r.FeeMarket), r.Epochs.Epoch(number)) {
		return fail(r, consensus.ErrInvalidPoW, header.MixDigest, nil)
	}
	return nil
}

// FeeMarketGasPrice requires the base fee to equal the one derived from the
// parent. Before the fee market activates the header must not carry one.
type FeeMarketGasPrice struct{}

func (FeeMarketGasPrice) Name() string { return "FeeMarketGasPrice" }

func (r FeeMarketGasPrice) Validate(header, parent *types.Header, ctx *Context) error {
	if !ctx.FeeMarket.IsActive(header.Number.Uint64()) {
		if header.BaseFee != nil {
			return fail(r, consensus.ErrUnexpectedBaseFee, header.BaseFee, nil)
		}
		return nil
	}
	if header.BaseFee == nil {
		return fail(r, consensus.ErrMissingBaseFee, nil, nil)
	}
	if want := ctx.FeeMarket.NextBaseFee(parent); header.BaseFee.Cmp(want) != 0 {
		return fail(r, consensus.ErrInvalidBaseFee, header.BaseFee, want)
	}
	return nil
}

// ConstantField pins a header field to a fixed value. It marks hard-fork
// activation blocks. With Number set, headers at other heights pass.
type ConstantField struct {
	Field  string
	Value  func(*types.Header) []byte
	Want   []byte
	Number *big.Int
}

// ExtraDataConstant pins the extra-data field.
func ExtraDataConstant(want []byte) ConstantField {
	return ConstantField{
		Field: "extraData",
		Value: func(h *types.Header) []byte { return h.Extra },
		Want:  common.CopyBytes(want),
	}
}

// HashConstant pins the header hash.
func HashConstant(want common.Hash) ConstantField {
	return ConstantField{
		Field: "hash",
		Value: func(h *types.Header) []byte { return h.Hash().Bytes() },
		Want:  want.Bytes(),
	}
}

// HashConstantAt pins the header hash of the block at the given height only.
func HashConstantAt(number *big.Int, want common.Hash) ConstantField {
	r := HashConstant(want)
	r.Number = new(big.Int).Set(number)
	return r
}

func (r ConstantField) Name() string { return "ConstantField(" + r.Field + ")" }

func (r ConstantField) Validate(header, _ *types.Header, _ *Context) error {
	if r.Number != nil && header.Number.Cmp(r.Number) != 0 {
		return nil
	}
	if have := r.Value(header); !bytes.Equal(have, r.Want) {
		return fail(r, consensus.ErrBadForkMarker, hexutil.Bytes(have), hexutil.Bytes(r.Want))
	}
	return nil
}
