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

package txvalidator

import (
	"github.com/chainadmit/chainadmit/core/types"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// Filter decides whether a sender may submit a transaction.
type Filter interface {
	Permitted(from common.Address, tx *types.Transaction) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(from common.Address, tx *types.Transaction) bool

func (f FilterFunc) Permitted(from common.Address, tx *types.Transaction) bool { return f(from, tx) }

// AccountAllowlist permits the listed senders only.
type AccountAllowlist struct {
	accounts mapset.Set[common.Address]
}

// NewAccountAllowlist creates an allowlist of the given senders. It is safe
// for concurrent use.
func NewAccountAllowlist(accounts ...common.Address) *AccountAllowlist {
	return &AccountAllowlist{accounts: mapset.NewSet[common.Address](accounts...)}
}

// Add permits another sender.
func (l *AccountAllowlist) Add(addr common.Address) { l.accounts.Add(addr) }

// Remove revokes a sender.
func (l *AccountAllowlist) Remove(addr common.Address) { l.accounts.Remove(addr) }

func (l *AccountAllowlist) Permitted(from common.Address, _ *types.Transaction) bool {
	return l.accounts.Contains(from)
}
