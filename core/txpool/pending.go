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

package txpool

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/txvalidator"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/btree"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// pendingTx is a pooled transaction with the bookkeeping of its indices.
type pendingTx struct {
	tx    *types.Transaction
	from  common.Address
	nonce uint64
	local bool
	seq   uint64       // insertion sequence, lower is older
	price *uint256.Int // effective price at the pool's base fee
}

func nonceLess(a, b *pendingTx) bool { return a.nonce < b.nonce }

// priorityLess orders entries from the first to be evicted: lowest effective
// price, oldest first on equal price.
func priorityLess(a, b *pendingTx) bool {
	if c := a.price.Cmp(b.price); c != 0 {
		return c < 0
	}
	return a.seq < b.seq
}

// PendingPool is the bounded in-memory set of admitted transactions. Entries
// are indexed by hash, by sender and nonce, and by eviction priority; all three
// indices are updated under a single lock.
type PendingPool struct {
	capacity  int
	priceBump uint64

	mu      sync.RWMutex
	baseFee *big.Int
	seq     uint64
	all     map[common.Hash]*pendingTx
	senders map[common.Address]*btree.BTreeG[*pendingTx]
	priced  *btree.BTreeG[*pendingTx]

	dropped listeners[func(*types.Transaction)]
}

// NewPendingPool creates an empty pool holding at most capacity transactions,
// priced against baseFee (nil before the fee market activates).
func NewPendingPool(capacity int, priceBump uint64, baseFee *big.Int) *PendingPool {
	if capacity < 1 {
		capacity = 1
	}
	p := &PendingPool{
		capacity:  capacity,
		priceBump: priceBump,
		all:       make(map[common.Hash]*pendingTx),
		senders:   make(map[common.Address]*btree.BTreeG[*pendingTx]),
		priced:    btree.NewG(32, priorityLess),
	}
	if baseFee != nil {
		p.baseFee = new(big.Int).Set(baseFee)
	}
	return p
}

// Add inserts a validated transaction. A transaction with the nonce of a pooled
// one from the same sender replaces it if it pays the configured price bump.
// A full pool evicts its lowest priority entry unless the new transaction
// would itself be that entry. Replaced and evicted transactions are reported
// to the dropped listeners once the pool lock is released.
func (p *PendingPool) Add(tx *types.Transaction, from common.Address, local bool) error {
	drops, err := p.add(tx, from, local)
	p.notifyDropped(drops)
	return err
}

func (p *PendingPool) add(tx *types.Transaction, from common.Address, local bool) ([]*types.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := tx.Hash()
	if p.all[hash] != nil {
		log.Trace("Discarding already known transaction", "hash", hash)
		return nil, txvalidator.ErrAlreadyKnown
	}
	entry := &pendingTx{
		tx:    tx,
		from:  from,
		nonce: tx.Nonce(),
		local: local,
		seq:   p.seq + 1,
		price: p.priceOf(tx),
	}
	if old := p.lookup(from, entry.nonce); old != nil {
		if !p.bumped(old.tx, tx) {
			log.Trace("Discarding underpriced replacement", "hash", hash, "replaces", old.tx.Hash())
			return nil, fmt.Errorf("%w: nonce %d from %v", txvalidator.ErrReplaceUnderpriced, entry.nonce, from)
		}
		p.remove(old)
		p.insert(entry)
		return []*types.Transaction{old.tx}, nil
	}
	var drops []*types.Transaction
	if len(p.all) >= p.capacity {
		lowest, _ := p.priced.Min()
		if !priorityLess(lowest, entry) {
			log.Trace("Discarding underpriced transaction", "hash", hash, "price", entry.price)
			return nil, fmt.Errorf("%w: price %v, lowest pooled %v", txvalidator.ErrUnderpriced, entry.price, lowest.price)
		}
		log.Trace("Evicting lowest priced transaction", "hash", lowest.tx.Hash(), "price", lowest.price)
		p.remove(lowest)
		drops = append(drops, lowest.tx)
	}
	p.insert(entry)
	return drops, nil
}

// bumped reports whether tx pays enough over old to replace it: both the fee
// cap and the tip must rise by at least the price bump percentage.
func (p *PendingPool) bumped(old, tx *types.Transaction) bool {
	if tx.GasFeeCapCmp(old) <= 0 || tx.GasTipCapCmp(old) <= 0 {
		return false
	}
	var (
		a       = big.NewInt(100 + int64(p.priceBump))
		feeCap  = new(big.Int).Mul(a, old.GasFeeCap())
		tipCap  = new(big.Int).Mul(a, old.GasTipCap())
		hundred = big.NewInt(100)
	)
	feeCap.Div(feeCap, hundred)
	tipCap.Div(tipCap, hundred)
	return tx.GasFeeCap().Cmp(feeCap) >= 0 && tx.GasTipCap().Cmp(tipCap) >= 0
}

func (p *PendingPool) priceOf(tx *types.Transaction) *uint256.Int {
	var price *big.Int
	if p.baseFee == nil {
		price = feemarket.Frontier().Price(tx, nil)
	} else {
		price = feemarket.LondonCalculator().Price(tx, p.baseFee)
	}
	v, overflow := uint256.FromBig(price)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return v
}

func (p *PendingPool) lookup(from common.Address, nonce uint64) *pendingTx {
	list := p.senders[from]
	if list == nil {
		return nil
	}
	entry, _ := list.Get(&pendingTx{nonce: nonce})
	return entry
}

func (p *PendingPool) insert(entry *pendingTx) {
	p.seq++
	entry.seq = p.seq

	p.all[entry.tx.Hash()] = entry
	list := p.senders[entry.from]
	if list == nil {
		list = btree.NewG(8, nonceLess)
		p.senders[entry.from] = list
	}
	list.ReplaceOrInsert(entry)
	p.priced.ReplaceOrInsert(entry)
}

func (p *PendingPool) remove(entry *pendingTx) {
	delete(p.all, entry.tx.Hash())
	if list := p.senders[entry.from]; list != nil {
		list.Delete(entry)
		if list.Len() == 0 {
			delete(p.senders, entry.from)
		}
	}
	p.priced.Delete(entry)
}

// MarkIncluded removes a transaction sealed into a block. Pooled transactions
// of the same sender whose nonce is no longer usable are dropped with it.
// The returned flag reports whether the transaction itself was pooled.
func (p *PendingPool) MarkIncluded(tx *types.Transaction, from common.Address) bool {
	p.mu.Lock()
	var (
		included bool
		stale    []*pendingTx
	)
	if entry := p.all[tx.Hash()]; entry != nil {
		p.remove(entry)
		included = true
	}
	if list := p.senders[from]; list != nil {
		list.AscendLessThan(&pendingTx{nonce: tx.Nonce() + 1}, func(entry *pendingTx) bool {
			stale = append(stale, entry)
			return true
		})
	}
	drops := make([]*types.Transaction, 0, len(stale))
	for _, entry := range stale {
		p.remove(entry)
		drops = append(drops, entry.tx)
	}
	p.mu.Unlock()

	p.notifyDropped(drops)
	return included
}

// UpdateBaseFee reprices every entry against a new base fee.
func (p *PendingPool) UpdateBaseFee(baseFee *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if baseFee == nil {
		p.baseFee = nil
	} else {
		p.baseFee = new(big.Int).Set(baseFee)
	}
	p.priced.Clear(false)
	for _, entry := range p.all {
		entry.price = p.priceOf(entry.tx)
		p.priced.ReplaceOrInsert(entry)
	}
}

// Get returns a pooled transaction, or nil if the hash is unknown.
func (p *PendingPool) Get(hash common.Hash) *types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if entry := p.all[hash]; entry != nil {
		return entry.tx
	}
	return nil
}

// Contains reports whether the pool holds a transaction with the given hash.
func (p *PendingPool) Contains(hash common.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.all[hash] != nil
}

// Len returns the number of pooled transactions.
func (p *PendingPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.all)
}

// Local returns the transactions submitted through the local path, oldest first.
func (p *PendingPool) Local() []*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var locals []*pendingTx
	for _, entry := range p.all {
		if entry.local {
			locals = append(locals, entry)
		}
	}
	slices.SortFunc(locals, func(a, b *pendingTx) int {
		return int(a.seq) - int(b.seq)
	})
	txs := make([]*types.Transaction, len(locals))
	for i, entry := range locals {
		txs[i] = entry.tx
	}
	return txs
}

// Hashes returns the hashes of all pooled transactions, highest priority first.
func (p *PendingPool) Hashes() []common.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()

	hashes := make([]common.Hash, 0, len(p.all))
	p.priced.Descend(func(entry *pendingTx) bool {
		hashes = append(hashes, entry.tx.Hash())
		return true
	})
	return hashes
}

// Pending returns the pooled transactions grouped by sender and sorted by nonce.
func (p *PendingPool) Pending() map[common.Address][]*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pending := make(map[common.Address][]*types.Transaction, len(p.senders))
	for addr, list := range p.senders {
		txs := make([]*types.Transaction, 0, list.Len())
		list.Ascend(func(entry *pendingTx) bool {
			txs = append(txs, entry.tx)
			return true
		})
		pending[addr] = txs
	}
	return pending
}

// Nonce returns the nonce following the highest pooled one of the sender.
func (p *PendingPool) Nonce(addr common.Address) (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := p.senders[addr]
	if list == nil {
		return 0, false
	}
	last, _ := list.Max()
	return last.nonce + 1, true
}

// SubscribeDropped registers a callback invoked with every replaced, evicted
// or stale transaction. The returned id cancels the subscription.
func (p *PendingPool) SubscribeDropped(fn func(*types.Transaction)) uint64 {
	return p.dropped.subscribe(fn)
}

// UnsubscribeDropped cancels a dropped subscription, reporting whether it existed.
func (p *PendingPool) UnsubscribeDropped(id uint64) bool {
	return p.dropped.unsubscribe(id)
}

func (p *PendingPool) notifyDropped(txs []*types.Transaction) {
	if len(txs) == 0 {
		return
	}
	for _, fn := range p.dropped.snapshot() {
		for _, tx := range txs {
			fn(tx)
		}
	}
}
