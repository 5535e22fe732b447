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

package ethash

import (
	"encoding/binary"
	"math/big"

	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/crypto"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
)

// two256 is a big integer representing 2^256
var two256 = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), big.NewInt(0))

// Verifier checks the proof-of-work seal of a header. Implementations are
// expected to be expensive but pure.
type Verifier interface {
	Verify(header *types.Header, sealHash common.Hash, epoch uint64) bool
}

// Hasher runs the proof-of-work function over a seal hash and nonce, returning
// the mix digest and the final result compared against the difficulty target.
type Hasher interface {
	Hash(sealHash common.Hash, nonce uint64, number uint64, epoch uint64) (mix, result common.Hash)
}

// EpochCalculator maps block numbers onto ethash epochs.
type EpochCalculator interface {
	Epoch(number uint64) uint64
	EpochStart(epoch uint64) uint64
}

// DefaultEpochs is the mainnet epoch layout of params.EpochLength blocks.
type DefaultEpochs struct{}

func (DefaultEpochs) Epoch(number uint64) uint64     { return number / params.EpochLength }
func (DefaultEpochs) EpochStart(epoch uint64) uint64 { return epoch * params.EpochLength }

// Ecip1099Epochs doubles the epoch length from the activation block onward, as
// done by Ethereum Classic.
type Ecip1099Epochs struct {
	Activation uint64
}

func (e Ecip1099Epochs) Epoch(number uint64) uint64 {
	if number < e.Activation {
		return number / params.EpochLength
	}
	return number / (2 * params.EpochLength)
}

func (e Ecip1099Epochs) EpochStart(epoch uint64) uint64 {
	if start := epoch * 2 * params.EpochLength; start >= e.Activation {
		return start
	}
	return epoch * params.EpochLength
}

// HashimotoVerifier verifies seals by rerunning the hasher and checking both
// the mix digest and the difficulty target.
type HashimotoVerifier struct {
	Hasher Hasher
}

// NewVerifier creates a verifier around the given hasher.
func NewVerifier(hasher Hasher) *HashimotoVerifier {
	return &HashimotoVerifier{Hasher: hasher}
}

func (v *HashimotoVerifier) Verify(header *types.Header, sealHash common.Hash, epoch uint64) bool {
	if header.Difficulty == nil || header.Difficulty.Sign() <= 0 {
		return false
	}
	mix, result := v.Hasher.Hash(sealHash, header.Nonce.Uint64(), header.Number.Uint64(), epoch)
	if mix != header.MixDigest {
		return false
	}
	return meetsTarget(result, header.Difficulty)
}

func meetsTarget(result common.Hash, difficulty *big.Int) bool {
	target := new(big.Int).Div(two256, difficulty)
	return new(big.Int).SetBytes(result.Bytes()).Cmp(target) <= 0
}

// KeccakHasher is a light stand-in for ethash used by development chains and
// tests. It has no dataset, so it is not memory hard.
type KeccakHasher struct{}

func (KeccakHasher) Hash(sealHash common.Hash, nonce uint64, number uint64, epoch uint64) (mix, result common.Hash) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], nonce)
	binary.BigEndian.PutUint64(buf[8:], epoch)
	mix = crypto.Keccak256Hash(sealHash.Bytes(), buf[:])
	result = crypto.Keccak256Hash(mix.Bytes(), sealHash.Bytes())
	return mix, result
}

// Seal searches for a nonce satisfying the header's difficulty and writes it,
// together with the resulting mix digest, into the header. The search gives
// up after maxTries attempts.
func Seal(header *types.Header, hasher Hasher, epochs EpochCalculator, withBaseFee bool, maxTries uint64) bool {
	var (
		sealHash = SealHash(header, withBaseFee)
		number   = header.Number.Uint64()
		epoch    = epochs.Epoch(number)
	)
	for nonce := uint64(0); nonce < maxTries; nonce++ {
		mix, result := hasher.Hash(sealHash, nonce, number, epoch)
		if meetsTarget(result, header.Difficulty) {
			header.Nonce = types.EncodeNonce(nonce)
			header.MixDigest = mix
			return true
		}
	}
	return false
}

// FakeVerifier accepts every seal, optionally failing a single block number.
type FakeVerifier struct {
	FailAt *uint64
}

// NewFaker returns a verifier accepting all seals.
func NewFaker() *FakeVerifier { return new(FakeVerifier) }

// NewFakeFailer returns a verifier accepting all seals except the one of the
// block with the given number.
func NewFakeFailer(number uint64) *FakeVerifier { return &FakeVerifier{FailAt: &number} }

func (f *FakeVerifier) Verify(header *types.Header, _ common.Hash, _ uint64) bool {
	return f.FailAt == nil || header.Number.Uint64() != *f.FailAt
}
