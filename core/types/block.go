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

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Block represents an Ethereum block. Only the parts the admission core
// inspects are carried: the header, its transactions and its ommers.
type Block struct {
	header       *Header
	uncles       []*Header
	transactions Transactions
}

// NewBlockWithHeader creates a block with the given header data. The
// header data is copied, changes to header and to the field values
// will not affect the block.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: CopyHeader(header)}
}

// WithBody returns a copy of the block with the given transaction and uncle contents.
func (b *Block) WithBody(transactions []*Transaction, uncles []*Header) *Block {
	block := &Block{
		header:       b.header,
		transactions: make([]*Transaction, len(transactions)),
		uncles:       make([]*Header, len(uncles)),
	}
	copy(block.transactions, transactions)
	for i := range uncles {
		block.uncles[i] = CopyHeader(uncles[i])
	}
	return block
}

func (b *Block) Transactions() Transactions { return b.transactions }
func (b *Block) Uncles() []*Header          { return b.uncles }

func (b *Block) Number() *big.Int        { return new(big.Int).Set(b.header.Number) }
func (b *Block) GasLimit() uint64        { return b.header.GasLimit }
func (b *Block) GasUsed() uint64         { return b.header.GasUsed }
func (b *Block) Time() uint64            { return b.header.Time }
func (b *Block) NumberU64() uint64       { return b.header.Number.Uint64() }
func (b *Block) Root() common.Hash       { return b.header.Root }
func (b *Block) ParentHash() common.Hash { return b.header.ParentHash }

// BaseFee returns the base fee of the block, or nil before the fee market.
func (b *Block) BaseFee() *big.Int {
	if b.header.BaseFee == nil {
		return nil
	}
	return new(big.Int).Set(b.header.BaseFee)
}

// Header returns a deep-copy of the entire block header.
func (b *Block) Header() *Header { return CopyHeader(b.header) }

// Hash returns the keccak256 hash of b's header.
func (b *Block) Hash() common.Hash {
	return b.header.Hash()
}
