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

// Package core implements the chain-facing services of the admission core:
// canonical chain tracking, chain events and header verification.
package core

import (
	"errors"
	"sync"

	"github.com/chainadmit/chainadmit/consensus"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
)

var errNoGenesis = errors.New("genesis not found in chain")

// ChainHeaderReader defines a small collection of methods needed to access the
// local blockchain during header verification.
type ChainHeaderReader interface {
	// CurrentHeader retrieves the current header from the local chain.
	CurrentHeader() *types.Header

	// GetHeader retrieves a block header from the database by hash and number.
	GetHeader(hash common.Hash, number uint64) *types.Header

	// GetHeaderByHash retrieves a block header from the database by its hash.
	GetHeaderByHash(hash common.Hash) *types.Header
}

// BlockChain is an in-memory canonical chain. It stores every block it was
// given, tracks the canonical head and announces head changes, including
// reorgs, as BlockAddedEvents.
type BlockChain struct {
	mu        sync.RWMutex
	blocks    map[common.Hash]*types.Block
	canonical map[uint64]common.Hash
	head      *types.Block

	blockAddedFeed event.FeedOf[BlockAddedEvent]
	scope          event.SubscriptionScope
}

// NewBlockChain creates a chain holding only the given genesis block.
func NewBlockChain(genesis *types.Block) (*BlockChain, error) {
	if genesis == nil || genesis.NumberU64() != 0 {
		return nil, errNoGenesis
	}
	bc := &BlockChain{
		blocks:    map[common.Hash]*types.Block{genesis.Hash(): genesis},
		canonical: map[uint64]common.Hash{0: genesis.Hash()},
		head:      genesis,
	}
	return bc, nil
}

// CurrentHeader returns the header of the canonical head.
func (bc *BlockChain) CurrentHeader() *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.head.Header()
}

// CurrentBlock returns the canonical head.
func (bc *BlockChain) CurrentBlock() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.head
}

// GetHeader retrieves a block header by hash and number.
func (bc *BlockChain) GetHeader(hash common.Hash, number uint64) *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if block, ok := bc.blocks[hash]; ok && block.NumberU64() == number {
		return block.Header()
	}
	return nil
}

// GetHeaderByHash retrieves a block header by hash.
func (bc *BlockChain) GetHeaderByHash(hash common.Hash) *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if block, ok := bc.blocks[hash]; ok {
		return block.Header()
	}
	return nil
}

// GetBlockByNumber retrieves a canonical block by number.
func (bc *BlockChain) GetBlockByNumber(number uint64) *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if hash, ok := bc.canonical[number]; ok {
		return bc.blocks[hash]
	}
	return nil
}

// InsertBlock stores a block whose parent is known and makes it the canonical
// head. If the block does not extend the current head, the canonical chain is
// rewound to the common ancestor first.
func (bc *BlockChain) InsertBlock(block *types.Block) error {
	bc.mu.Lock()
	if _, ok := bc.blocks[block.ParentHash()]; !ok {
		bc.mu.Unlock()
		return consensus.ErrUnknownAncestor
	}
	bc.blocks[block.Hash()] = block

	// Walk both branches back to the common ancestor
	var (
		oldBlock, newBlock = bc.head, block
		oldChain, newChain []*types.Block
	)
	for ; oldBlock.NumberU64() > newBlock.NumberU64(); oldBlock = bc.blocks[oldBlock.ParentHash()] {
		oldChain = append(oldChain, oldBlock)
	}
	for ; newBlock.NumberU64() > oldBlock.NumberU64(); newBlock = bc.blocks[newBlock.ParentHash()] {
		newChain = append(newChain, newBlock)
	}
	for oldBlock.Hash() != newBlock.Hash() {
		oldChain = append(oldChain, oldBlock)
		newChain = append(newChain, newBlock)
		oldBlock, newBlock = bc.blocks[oldBlock.ParentHash()], bc.blocks[newBlock.ParentHash()]
	}
	var removed, added types.Transactions
	for _, old := range oldChain {
		delete(bc.canonical, old.NumberU64())
		removed = append(removed, old.Transactions()...)
	}
	for i := len(newChain) - 1; i >= 0; i-- {
		bc.canonical[newChain[i].NumberU64()] = newChain[i].Hash()
		added = append(added, newChain[i].Transactions()...)
	}
	bc.head = block
	bc.mu.Unlock()

	if len(removed) > 0 {
		removed = types.TxDifference(removed, added)
		log.Info("Chain reorg detected", "number", block.NumberU64(), "hash", block.Hash(), "drop", len(removed))
	}
	bc.blockAddedFeed.Send(BlockAddedEvent{
		Block:               block,
		AddedTransactions:   added,
		RemovedTransactions: removed,
	})
	return nil
}

// SubscribeBlockAddedEvent registers a subscription of BlockAddedEvent.
func (bc *BlockChain) SubscribeBlockAddedEvent(ch chan<- BlockAddedEvent) event.Subscription {
	return bc.scope.Track(bc.blockAddedFeed.Subscribe(ch))
}

// Stop terminates all subscriptions.
func (bc *BlockChain) Stop() {
	bc.scope.Close()
}
