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

// Package state provides read access to the world state the transaction pool
// validates senders against.
package state

import (
	"sync"

	"github.com/chainadmit/chainadmit/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Account is the consensus representation of an account as seen by the
// admission checks.
type Account struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash common.Hash
}

// NewAccount creates an externally owned account.
func NewAccount(nonce uint64, balance *uint256.Int) *Account {
	return &Account{Nonce: nonce, Balance: balance, CodeHash: types.EmptyCodeHash}
}

// IsContract reports whether the account has code attached.
func (a *Account) IsContract() bool {
	return a.CodeHash != (common.Hash{}) && a.CodeHash != types.EmptyCodeHash
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cpy := *a
	if a.Balance != nil {
		cpy.Balance = new(uint256.Int).Set(a.Balance)
	}
	return &cpy
}

// Reader defines the interface for accessing accounts associated with a
// specific state.
type Reader interface {
	// Account retrieves the account associated with a particular address.
	//
	// - Returns a nil account if it does not exist
	// - Returns an error only if an unexpected issue occurs
	// - The returned account is safe to modify after the call
	Account(addr common.Address) (*Account, error)
}

// Archive resolves the state of a block. A missing state is an expected
// outcome signalling that the node has not synced it, not an error.
type Archive interface {
	Reader(root common.Hash, blockHash common.Hash) (Reader, bool)
}

// MemoryArchive is an in-memory archive keyed by state root.
type MemoryArchive struct {
	mu     sync.RWMutex
	states map[common.Hash]map[common.Address]*Account
}

// NewMemoryArchive creates an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{states: make(map[common.Hash]map[common.Address]*Account)}
}

// Commit stores the accounts of a state under its root, replacing any
// previous content.
func (a *MemoryArchive) Commit(root common.Hash, accounts map[common.Address]*Account) {
	state := make(map[common.Address]*Account, len(accounts))
	for addr, acct := range accounts {
		state[addr] = acct.Copy()
	}
	a.mu.Lock()
	a.states[root] = state
	a.mu.Unlock()
}

// Drop forgets the state with the given root.
func (a *MemoryArchive) Drop(root common.Hash) {
	a.mu.Lock()
	delete(a.states, root)
	a.mu.Unlock()
}

func (a *MemoryArchive) Reader(root common.Hash, _ common.Hash) (Reader, bool) {
	a.mu.RLock()
	state, ok := a.states[root]
	a.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return memoryReader(state), true
}

// memoryReader is immutable once committed.
type memoryReader map[common.Address]*Account

func (r memoryReader) Account(addr common.Address) (*Account, error) {
	acct, ok := r[addr]
	if !ok {
		return nil, nil
	}
	return acct.Copy(), nil
}
