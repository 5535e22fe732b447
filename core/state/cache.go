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

package state

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/chainadmit/chainadmit/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	cacheHitMeter  = metrics.NewRegisteredCounter("state/cache/hit", nil)
	cacheMissMeter = metrics.NewRegisteredCounter("state/cache/miss", nil)
)

// missingAccount is the cached marker of an address without an account.
var missingAccount = []byte{0x80}

// CachingArchive keeps recently read accounts of every state in a shared
// GC friendly cache of their RLP encodings. States are immutable per root, so
// entries never go stale.
type CachingArchive struct {
	archive Archive
	cache   *fastcache.Cache
}

// NewCachingArchive wraps an archive with a cache of the given size in bytes.
func NewCachingArchive(archive Archive, size int) *CachingArchive {
	return &CachingArchive{archive: archive, cache: fastcache.New(size)}
}

func (a *CachingArchive) Reader(root common.Hash, blockHash common.Hash) (Reader, bool) {
	reader, ok := a.archive.Reader(root, blockHash)
	if !ok {
		return nil, false
	}
	return &cachingReader{root: root, reader: reader, cache: a.cache}, true
}

type cachingReader struct {
	root   common.Hash
	reader Reader
	cache  *fastcache.Cache
}

func (r *cachingReader) key(addr common.Address) []byte {
	key := make([]byte, 0, common.HashLength+common.AddressLength)
	key = append(key, r.root.Bytes()...)
	return append(key, addr.Bytes()...)
}

func (r *cachingReader) Account(addr common.Address) (*Account, error) {
	key := r.key(addr)
	if enc, ok := r.cache.HasGet(nil, key); ok {
		cacheHitMeter.Inc(1)
		if len(enc) == 1 && enc[0] == missingAccount[0] {
			return nil, nil
		}
		acct := new(Account)
		err := rlp.DecodeBytes(enc, acct)
		if err == nil {
			return acct, nil
		}
		log.Error("Failed to decode cached account", "addr", addr, "err", err)
	}
	cacheMissMeter.Inc(1)

	acct, err := r.reader.Account(addr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		r.cache.Set(key, missingAccount)
		return nil, nil
	}
	enc, err := rlp.EncodeToBytes(acct)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, enc)
	return acct, nil
}
