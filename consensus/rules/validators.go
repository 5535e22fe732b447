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
	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/params"
)

// Params are the fork-specific collaborators of the header rule sets.
type Params struct {
	Difficulty ethash.Calculator
	PoW        ethash.Verifier
	Epochs     ethash.EpochCalculator
}

func (p Params) epochs() ethash.EpochCalculator {
	if p.Epochs == nil {
		return ethash.DefaultEpochs{}
	}
	return p.Epochs
}

// MainnetHeaderValidator assembles the proof-of-work rules of a legacy block.
func MainnetHeaderValidator(p Params) *Builder {
	return NewBuilder("mainnet").
		Add(CalculatedDifficulty{Calculator: p.Difficulty}).
		Add(Ancestry{}).
		Add(GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}).
		Add(GasUsage{}).
		Add(TimestampMoreRecentThanParent{MinSeconds: params.MinimumSecondsSinceParent}).
		Add(TimestampBoundedByFuture{ToleranceSeconds: params.AllowedFutureBlockTimeSeconds}).
		Add(ExtraDataMaxLength{Max: params.MaximumExtraDataSize}).
		Add(ProofOfWork{Verifier: p.PoW, Epochs: p.epochs()})
}

// DAOHeaderValidator extends the mainnet rules with the DAO hard-fork
// extra-data marker.
func DAOHeaderValidator(p Params) *Builder {
	b := MainnetHeaderValidator(p).Add(ExtraDataConstant(params.DAOForkBlockExtra))
	b.name = "dao"
	return b
}

// ClassicHeaderValidator extends the mainnet rules with the hash of the first
// block of the non-forking chain. Other heights are not pinned.
func ClassicHeaderValidator(p Params) *Builder {
	b := MainnetHeaderValidator(p).Add(HashConstantAt(params.ClassicForkBlock, params.ClassicForkBlockHash))
	b.name = "classic"
	return b
}

// OmmerHeaderValidator validates uncles. They are historical, so the local
// clock does not bound their timestamp.
func OmmerHeaderValidator(p Params) *Builder {
	return NewBuilder("ommer").
		Add(CalculatedDifficulty{Calculator: p.Difficulty}).
		Add(Ancestry{}).
		Add(GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}).
		Add(GasUsage{}).
		Add(TimestampMoreRecentThanParent{MinSeconds: params.MinimumSecondsSinceParent}).
		Add(ExtraDataMaxLength{Max: params.MaximumExtraDataSize}).
		Add(ProofOfWork{Verifier: p.PoW, Epochs: p.epochs()})
}

// LondonHeaderValidator assembles the rules of a fee-market block. The gas
// limit bound is elastic and the base fee must follow from the parent.
func LondonHeaderValidator(p Params) *Builder {
	return NewBuilder("london").
		Add(CalculatedDifficulty{Calculator: p.Difficulty}).
		Add(Ancestry{}).
		Add(GasUsage{}).
		Add(GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}).
		Add(TimestampMoreRecentThanParent{MinSeconds: params.MinimumSecondsSinceParent}).
		Add(TimestampBoundedByFuture{ToleranceSeconds: params.AllowedFutureBlockTimeSeconds}).
		Add(ExtraDataMaxLength{Max: params.MaximumExtraDataSize}).
		Add(ProofOfWork{Verifier: p.PoW, Epochs: p.epochs(), FeeMarket: true}).
		Add(FeeMarketGasPrice{})
}

// LondonOmmerHeaderValidator is the fee-market variant of the uncle rules.
func LondonOmmerHeaderValidator(p Params) *Builder {
	return NewBuilder("london-ommer").
		Add(CalculatedDifficulty{Calculator: p.Difficulty}).
		Add(Ancestry{}).
		Add(GasUsage{}).
		Add(GasLimitRangeAndDelta{Min: params.MinGasLimit, Max: params.MaxGasLimit}).
		Add(TimestampMoreRecentThanParent{MinSeconds: params.MinimumSecondsSinceParent}).
		Add(ExtraDataMaxLength{Max: params.MaximumExtraDataSize}).
		Add(ProofOfWork{Verifier: p.PoW, Epochs: p.epochs(), FeeMarket: true}).
		Add(FeeMarketGasPrice{})
}
