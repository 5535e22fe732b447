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

// Package txpool admits transactions into the pending pool of a node. Local
// submissions and remote gossip go through the fork's transaction validator
// and the sender's account state at the chain head before they are pooled.
package txpool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/chainadmit/chainadmit/core"
	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/schedule"
	"github.com/chainadmit/chainadmit/core/state"
	"github.com/chainadmit/chainadmit/core/txvalidator"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gammazero/deque"
	lru "github.com/hashicorp/golang-lru"
)

// chainHeadChanSize is the size of channel listening to BlockAddedEvent.
const chainHeadChanSize = 10

// ErrOutOfSync is returned for remote transactions received while the node
// trails the network by more than the configured tolerance.
var ErrOutOfSync = errors.New("node is not in sync")

// BlockChain provides the state of blockchain and current gas limit to do
// some pre checks in tx pool and event subscribers.
type BlockChain interface {
	CurrentHeader() *types.Header
	SubscribeBlockAddedEvent(ch chan<- core.BlockAddedEvent) event.Subscription
}

// SyncState reports whether the node is close enough to the best known chain.
type SyncState interface {
	InSync(tolerance uint64) bool
}

// TxPool validates incoming transactions and keeps the admitted ones in a
// PendingPool until they are included in a block.
type TxPool struct {
	config   Config
	schedule *schedule.Schedule
	chain    BlockChain
	archive  state.Archive
	sync     SyncState

	pending   *PendingPool
	announced *lru.Cache // hashes announced by peers but not yet fetched
	peers     *PeerTracker

	added      listeners[func([]*types.Transaction)]
	localAdded listeners[func([]*types.Transaction)]
	txFeed     event.FeedOf[core.NewTxsEvent]
	scope      event.SubscriptionScope

	duplicates *metrics.LabelledCounter

	resubmitMu  sync.Mutex
	resubmitQ   deque.Deque[*types.Transaction]
	resubmitCh  chan struct{}
	resubmitted atomic.Uint64 // resubmission rounds completed

	chainHeadCh  chan core.BlockAddedEvent
	chainHeadSub event.Subscription

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a transaction pool on top of the given chain and starts its
// background routines. The duplicate counter is registered with reg, or the
// default registry when reg is nil.
func New(config Config, sched *schedule.Schedule, chain BlockChain, archive state.Archive, syncer SyncState, reg metrics.Registry) *TxPool {
	config = (&config).sanitize()

	head := chain.CurrentHeader()
	if head == nil {
		panic("txpool: chain has no head")
	}
	announced, err := lru.New(config.AnnounceSlots)
	if err != nil {
		panic(err)
	}
	pool := &TxPool{
		config:      config,
		schedule:    sched,
		chain:       chain,
		archive:     archive,
		sync:        syncer,
		pending:     NewPendingPool(int(config.GlobalSlots), config.PriceBump, head.BaseFee),
		announced:   announced,
		peers:       NewPeerTracker(),
		duplicates:  newDuplicateCounter(reg),
		resubmitCh:  make(chan struct{}, 1),
		chainHeadCh: make(chan core.BlockAddedEvent, chainHeadChanSize),
		quit:        make(chan struct{}),
	}
	pool.added.subscribe(pool.peers.Broadcast)
	pool.chainHeadSub = chain.SubscribeBlockAddedEvent(pool.chainHeadCh)

	pool.wg.Add(2)
	go pool.loop()
	go pool.resubmitLoop()
	return pool
}

// loop follows the chain and keeps the pool in step with newly added blocks.
func (pool *TxPool) loop() {
	defer pool.wg.Done()

	for {
		select {
		case ev := <-pool.chainHeadCh:
			pool.OnBlockAdded(ev)
		case <-pool.chainHeadSub.Err():
			return
		case <-pool.quit:
			return
		}
	}
}

// resubmitLoop feeds transactions dropped from the canonical chain back through
// the remote admission path.
func (pool *TxPool) resubmitLoop() {
	defer pool.wg.Done()

	for {
		select {
		case <-pool.resubmitCh:
			pool.resubmitMu.Lock()
			txs := make([]*types.Transaction, 0, pool.resubmitQ.Len())
			for pool.resubmitQ.Len() > 0 {
				txs = append(txs, pool.resubmitQ.PopFront())
			}
			pool.resubmitMu.Unlock()

			if len(txs) > 0 {
				var readmitted int
				for _, err := range pool.AddRemotes(txs) {
					if err == nil {
						readmitted++
					}
				}
				resubmittedTxMeter.Inc(int64(readmitted))
				log.Debug("Resubmitted reorged transactions", "count", len(txs), "readmitted", readmitted)
			}
			pool.resubmitted.Add(1)

		case <-pool.quit:
			return
		}
	}
}

// Close terminates the background routines and all event subscriptions.
func (pool *TxPool) Close() error {
	pool.closeOnce.Do(func() {
		pool.chainHeadSub.Unsubscribe()
		close(pool.quit)
		pool.wg.Wait()
		pool.scope.Close()
		log.Info("Transaction pool stopped")
	})
	return nil
}

// AddLocal validates a transaction submitted by the node operator and pools
// it. Duplicates are reported as txvalidator.ErrAlreadyKnown.
func (pool *TxPool) AddLocal(tx *types.Transaction) error {
	pool.announced.Remove(tx.Hash())

	from, err := pool.validateTransaction(tx)
	if err != nil {
		log.Trace("Discarding invalid local transaction", "hash", tx.Hash(), "err", err)
		invalidTxMeter.Inc(1)
		return err
	}
	if err := pool.checkFeeCap(tx); err != nil {
		log.Trace("Discarding local transaction above fee cap", "hash", tx.Hash(), "err", err)
		feeCapTxMeter.Inc(1)
		return err
	}
	if err := pool.pending.Add(tx, from, true); err != nil {
		if errors.Is(err, txvalidator.ErrAlreadyKnown) {
			knownTxMeter.Inc(1)
			pool.duplicates.Inc(sourceLocal)
		}
		return err
	}
	pool.notifyAdded([]*types.Transaction{tx}, true)
	return nil
}

// AddRemotes pools a batch of gossiped transactions. The whole batch is
// discarded while the node is out of sync. Listeners are notified once with
// every transaction of the batch that was admitted. The returned slice holds
// the outcome of each transaction, nil when it was pooled.
func (pool *TxPool) AddRemotes(txs []*types.Transaction) []error {
	errs := make([]error, len(txs))
	if !pool.sync.InSync(pool.config.SyncTolerance) {
		log.Trace("Discarding remote transactions while out of sync", "count", len(txs))
		unsyncedTxMeter.Inc(int64(len(txs)))
		for i := range errs {
			errs[i] = ErrOutOfSync
		}
		return errs
	}
	var added []*types.Transaction
	for i, tx := range txs {
		hash := tx.Hash()
		pool.announced.Remove(hash)

		if pool.pending.Contains(hash) {
			log.Trace("Discarding already known transaction", "hash", hash)
			knownTxMeter.Inc(1)
			pool.duplicates.Inc(sourceRemote)
			errs[i] = txvalidator.ErrAlreadyKnown
			continue
		}
		if floor := new(big.Int).SetUint64(pool.config.PriceLimit); pool.minTransactionGasPrice(tx).Cmp(floor) < 0 {
			log.Trace("Discarding underpriced remote transaction", "hash", hash, "floor", floor)
			underpricedTxMeter.Inc(1)
			errs[i] = fmt.Errorf("%w: below price limit %v", txvalidator.ErrUnderpriced, floor)
			continue
		}
		from, err := pool.validateTransaction(tx)
		if err != nil {
			log.Trace("Discarding invalid remote transaction", "hash", hash, "err", err)
			invalidTxMeter.Inc(1)
			errs[i] = err
			continue
		}
		if err := pool.pending.Add(tx, from, false); err != nil {
			if errors.Is(err, txvalidator.ErrAlreadyKnown) {
				knownTxMeter.Inc(1)
				pool.duplicates.Inc(sourceRemote)
			}
			errs[i] = err
			continue
		}
		added = append(added, tx)
	}
	// A later entry of the batch may have evicted or replaced an earlier one.
	admitted := added[:0]
	for _, tx := range added {
		if pool.pending.Contains(tx.Hash()) {
			admitted = append(admitted, tx)
		}
	}
	if len(admitted) > 0 {
		pool.notifyAdded(admitted, false)
	}
	return errs
}

// OnBlockAdded removes the transactions of a new canonical block from the
// pool, reprices the remaining ones and queues the transactions of abandoned
// blocks for resubmission.
func (pool *TxPool) OnBlockAdded(ev core.BlockAddedEvent) {
	block := ev.Block
	signer := pool.schedule.ByBlockNumber(block.NumberU64()).TxValidator.Signer()
	for _, tx := range ev.AddedTransactions {
		from, err := types.Sender(signer, tx)
		if err != nil {
			log.Debug("Failed to recover sender of included transaction", "hash", tx.Hash(), "err", err)
			continue
		}
		if pool.pending.MarkIncluded(tx, from) {
			includedTxMeter.Inc(1)
		}
	}
	pool.pending.UpdateBaseFee(block.BaseFee())

	if len(ev.RemovedTransactions) == 0 {
		return
	}
	pool.resubmitMu.Lock()
	for _, tx := range ev.RemovedTransactions {
		pool.resubmitQ.PushBack(tx)
	}
	pool.resubmitMu.Unlock()

	select {
	case pool.resubmitCh <- struct{}{}:
	default:
	}
}

// validateTransaction checks a transaction against a single snapshot of the
// chain head and returns its sender. The pool lock is not held here.
func (pool *TxPool) validateTransaction(tx *types.Transaction) (common.Address, error) {
	head := pool.chain.CurrentHeader()
	if head == nil {
		panic("txpool: chain head missing")
	}
	spec := pool.schedule.ByBlockNumber(head.Number.Uint64())

	if pool.config.Privacy && tx.IsPrivate() && tx.Value().Sign() != 0 {
		return common.Address{}, fmt.Errorf("%w: value %v", txvalidator.ErrEtherValueNotSupported, tx.Value())
	}
	// The head's validator also refuses transaction types its fork does not
	// know, e.g. dynamic fee transactions before the fee market.
	if err := spec.TxValidator.Validate(tx, head.BaseFee, txvalidator.TransactionPool); err != nil {
		return common.Address{}, err
	}
	if tx.Gas() > head.GasLimit {
		return common.Address{}, fmt.Errorf("%w: gas %d, limit %d", txvalidator.ErrExceedsBlockGasLimit, tx.Gas(), head.GasLimit)
	}
	reader, ok := pool.archive.Reader(head.Root, head.Hash())
	if !ok {
		return common.Address{}, fmt.Errorf("%w: root %v at block %d", txvalidator.ErrStateUnavailable, head.Root, head.Number)
	}
	from, err := types.Sender(spec.TxValidator.Signer(), tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", txvalidator.ErrInvalidSignature, err)
	}
	account, err := reader.Account(from)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", txvalidator.ErrStateUnavailable, err)
	}
	if err := spec.TxValidator.ValidateForSender(tx, account, txvalidator.TransactionPool); err != nil {
		return common.Address{}, err
	}
	return from, nil
}

// minTransactionGasPrice returns the lowest price per gas the transaction pays
// in the next block: against the smallest base fee the next block can carry
// once the fee market is active, the stated gas price before.
func (pool *TxPool) minTransactionGasPrice(tx *types.Transaction) *big.Int {
	head := pool.chain.CurrentHeader()
	spec := pool.schedule.ByBlockNumber(head.Number.Uint64())
	return feemarket.MinimumPrice(tx, spec.FeeMarket, spec.Price, head, feemarket.NextBlock)
}

// checkFeeCap rejects transactions whose minimum price in the next block
// exceeds the configured cap.
func (pool *TxPool) checkFeeCap(tx *types.Transaction) error {
	if pool.config.TxFeeCap == 0 {
		return nil
	}
	limit := new(big.Int).SetUint64(pool.config.TxFeeCap)
	if price := pool.minTransactionGasPrice(tx); price.Cmp(limit) > 0 {
		return fmt.Errorf("%w: price %v wei, cap %v wei", txvalidator.ErrTxFeeCapExceeded, price, limit)
	}
	return nil
}

func (pool *TxPool) notifyAdded(txs []*types.Transaction, local bool) {
	for _, fn := range pool.added.snapshot() {
		fn(txs)
	}
	if local {
		for _, fn := range pool.localAdded.snapshot() {
			fn(txs)
		}
	}
	pool.txFeed.Send(core.NewTxsEvent{Txs: txs})
}

// AddTransactionHash records a hash announced by a peer until the transaction
// itself arrives.
func (pool *TxPool) AddTransactionHash(hash common.Hash) {
	if pool.pending.Contains(hash) {
		return
	}
	pool.announced.Add(hash, struct{}{})
}

// Announced reports whether a hash was announced and not yet fetched.
func (pool *TxPool) Announced(hash common.Hash) bool {
	return pool.announced.Contains(hash)
}

// SubscribePendingTransactions registers a callback invoked with every batch of
// admitted transactions. The returned id cancels the subscription.
func (pool *TxPool) SubscribePendingTransactions(fn func([]*types.Transaction)) uint64 {
	return pool.added.subscribe(fn)
}

// UnsubscribePendingTransactions cancels a pending subscription.
func (pool *TxPool) UnsubscribePendingTransactions(id uint64) bool {
	return pool.added.unsubscribe(id)
}

// SubscribeLocalTransactions registers a callback invoked with locally
// submitted transactions only.
func (pool *TxPool) SubscribeLocalTransactions(fn func([]*types.Transaction)) uint64 {
	return pool.localAdded.subscribe(fn)
}

// UnsubscribeLocalTransactions cancels a local subscription.
func (pool *TxPool) UnsubscribeLocalTransactions(id uint64) bool {
	return pool.localAdded.unsubscribe(id)
}

// SubscribeDroppedTransactions registers a callback invoked with transactions
// replaced, evicted or made stale in the pending pool.
func (pool *TxPool) SubscribeDroppedTransactions(fn func(*types.Transaction)) uint64 {
	return pool.pending.SubscribeDropped(fn)
}

// UnsubscribeDroppedTransactions cancels a dropped subscription.
func (pool *TxPool) UnsubscribeDroppedTransactions(id uint64) bool {
	return pool.pending.UnsubscribeDropped(id)
}

// SubscribeNewTxsEvent registers a subscription of NewTxsEvent and
// starts sending event to the given channel.
func (pool *TxPool) SubscribeNewTxsEvent(ch chan<- core.NewTxsEvent) event.Subscription {
	return pool.scope.Track(pool.txFeed.Subscribe(ch))
}

// HandleConnect queues the local transactions for a newly connected peer and,
// for peers announcing by hash, every pooled hash.
func (pool *TxPool) HandleConnect(peer Peer) {
	pool.peers.HandleConnect(peer, pool.pending.Local(), pool.pending.Hashes())
}

// HandleDisconnect forgets the queues of a peer.
func (pool *TxPool) HandleDisconnect(id string) {
	pool.peers.HandleDisconnect(id)
}

// Peers returns the tracker holding the outbound queues of connected peers.
func (pool *TxPool) Peers() *PeerTracker { return pool.peers }

// Has returns an indicator whether txpool has a transaction cached with the
// given hash.
func (pool *TxPool) Has(hash common.Hash) bool { return pool.pending.Contains(hash) }

// Get returns a transaction if it is contained in the pool and nil otherwise.
func (pool *TxPool) Get(hash common.Hash) *types.Transaction { return pool.pending.Get(hash) }

// Len returns the number of pooled transactions.
func (pool *TxPool) Len() int { return pool.pending.Len() }

// Pending retrieves all pooled transactions, grouped by origin account and
// sorted by nonce.
func (pool *TxPool) Pending() map[common.Address][]*types.Transaction {
	return pool.pending.Pending()
}

// Locals retrieves the transactions submitted through AddLocal.
func (pool *TxPool) Locals() []*types.Transaction { return pool.pending.Local() }

// Nonce returns the next nonce of an account, with all pooled transactions
// applied on top of the state at the chain head.
func (pool *TxPool) Nonce(addr common.Address) uint64 {
	if nonce, ok := pool.pending.Nonce(addr); ok {
		return nonce
	}
	head := pool.chain.CurrentHeader()
	reader, ok := pool.archive.Reader(head.Root, head.Hash())
	if !ok {
		return 0
	}
	account, err := reader.Account(addr)
	if err != nil || account == nil {
		return 0
	}
	return account.Nonce
}
