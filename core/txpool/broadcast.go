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
	"sync"

	"github.com/chainadmit/chainadmit/core/types"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gammazero/deque"
)

const (
	// ETH65 is the first protocol version announcing transactions by hash.
	ETH65 = 65

	// maxKnownTxs is the maximum transactions hashes to keep in the known list
	// before starting to randomly evict them.
	maxKnownTxs = 32768
)

// Peer identifies a connected peer and the protocol version it speaks.
type Peer struct {
	ID      string
	Version uint
}

// peerQueue holds the transactions and hashes waiting to be sent to a peer.
type peerQueue struct {
	peer   Peer
	txs    deque.Deque[*types.Transaction]
	hashes deque.Deque[common.Hash]
	known  mapset.Set[common.Hash]
}

// markKnown records a hash as known to the peer, reporting false if it already
// was.
func (q *peerQueue) markKnown(hash common.Hash) bool {
	if q.known.Contains(hash) {
		return false
	}
	for q.known.Cardinality() >= maxKnownTxs {
		q.known.Pop()
	}
	q.known.Add(hash)
	return true
}

// PeerTracker keeps the outbound transaction queues of connected peers.
type PeerTracker struct {
	mu    sync.Mutex
	peers map[string]*peerQueue
}

// NewPeerTracker creates an empty tracker.
func NewPeerTracker() *PeerTracker {
	return &PeerTracker{peers: make(map[string]*peerQueue)}
}

// HandleConnect registers a peer, queueing every local transaction for full
// send. Peers at ETH65 or above additionally get every pooled hash queued for
// announcement.
func (t *PeerTracker) HandleConnect(peer Peer, locals []*types.Transaction, hashes []common.Hash) {
	q := &peerQueue{
		peer:  peer,
		known: mapset.NewThreadUnsafeSet[common.Hash](),
	}
	for _, tx := range locals {
		q.markKnown(tx.Hash())
		q.txs.PushBack(tx)
	}
	if peer.Version >= ETH65 {
		for _, hash := range hashes {
			q.known.Add(hash)
			q.hashes.PushBack(hash)
		}
	}
	t.mu.Lock()
	t.peers[peer.ID] = q
	t.mu.Unlock()
}

// HandleDisconnect drops the queues of a peer.
func (t *PeerTracker) HandleDisconnect(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.peers, id)
}

// Broadcast queues newly admitted transactions for every peer not known to
// have them: by hash for peers at ETH65 or above, in full otherwise.
func (t *PeerTracker) Broadcast(txs []*types.Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, q := range t.peers {
		for _, tx := range txs {
			hash := tx.Hash()
			if !q.markKnown(hash) {
				continue
			}
			if q.peer.Version >= ETH65 {
				q.hashes.PushBack(hash)
			} else {
				q.txs.PushBack(tx)
			}
		}
	}
}

// MarkKnown records that a peer already has the given transactions, e.g.
// because it sent or announced them.
func (t *PeerTracker) MarkKnown(id string, hashes ...common.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if q := t.peers[id]; q != nil {
		for _, hash := range hashes {
			q.markKnown(hash)
		}
	}
}

// TakeTransactions drains the full transactions queued for a peer.
func (t *PeerTracker) TakeTransactions(id string) []*types.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.peers[id]
	if q == nil {
		return nil
	}
	txs := make([]*types.Transaction, 0, q.txs.Len())
	for q.txs.Len() > 0 {
		txs = append(txs, q.txs.PopFront())
	}
	return txs
}

// TakeHashes drains the hashes queued for announcement to a peer.
func (t *PeerTracker) TakeHashes(id string) []common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.peers[id]
	if q == nil {
		return nil
	}
	hashes := make([]common.Hash, 0, q.hashes.Len())
	for q.hashes.Len() > 0 {
		hashes = append(hashes, q.hashes.PopFront())
	}
	return hashes
}

// Len returns the number of connected peers.
func (t *PeerTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.peers)
}
