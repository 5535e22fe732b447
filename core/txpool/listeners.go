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

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// listeners is a table of callbacks keyed by subscription id. Dispatch works on
// a snapshot so callbacks may subscribe or unsubscribe while being invoked.
type listeners[T any] struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]T
}

func (l *listeners[T]) subscribe(fn T) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subs == nil {
		l.subs = make(map[uint64]T)
	}
	l.next++
	l.subs[l.next] = fn
	return l.next
}

func (l *listeners[T]) unsubscribe(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[id]; !ok {
		return false
	}
	delete(l.subs, id)
	return true
}

// snapshot returns the registered callbacks in subscription order.
func (l *listeners[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := maps.Keys(l.subs)
	slices.Sort(ids)

	fns := make([]T, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.subs[id])
	}
	return fns
}
