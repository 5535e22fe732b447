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

package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/chainadmit/chainadmit/consensus"
	"github.com/chainadmit/chainadmit/core/schedule"
	"github.com/chainadmit/chainadmit/core/types"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// maxUncles is the maximum number of uncles allowed in a single block.
const maxUncles = 2

var (
	errTooManyUncles   = errors.New("too many uncles")
	errDuplicateUncle  = errors.New("duplicate uncle")
	errUncleIsAncestor = errors.New("uncle is ancestor")
	errDanglingUncle   = errors.New("uncle's parent is not ancestor")
)

// HeaderVerifier checks headers against the rule set the fork schedule
// assigns to their height.
type HeaderVerifier struct {
	schedule *schedule.Schedule
	chain    ChainHeaderReader
	now      func() time.Time
	workers  int
}

// NewHeaderVerifier creates a verifier resolving parents through chain.
func NewHeaderVerifier(sched *schedule.Schedule, chain ChainHeaderReader) *HeaderVerifier {
	return &HeaderVerifier{
		schedule: sched,
		chain:    chain,
		now:      time.Now,
		workers:  runtime.GOMAXPROCS(0),
	}
}

// VerifyHeader checks whether a header conforms to the consensus rules of its
// fork. The parent must be known to the chain.
func (v *HeaderVerifier) VerifyHeader(header *types.Header) error {
	number := header.Number.Uint64()
	if number == 0 {
		return v.verify(header, nil)
	}
	parent := v.chain.GetHeader(header.ParentHash, number-1)
	if parent == nil {
		return consensus.ErrUnknownAncestor
	}
	return v.verify(header, parent)
}

func (v *HeaderVerifier) verify(header, parent *types.Header) error {
	number := header.Number.Uint64()
	ctx := v.schedule.Context(number, uint64(v.now().Unix()))
	return v.schedule.RuleSet(number).Validate(header, parent, ctx)
}

// VerifyHeaders verifies a contiguous batch of headers concurrently. The
// parent of the first header is looked up in the chain, every other header is
// checked against its predecessor in the batch. The returned slice holds the
// result of each header in order; headers that were not verified because the
// context was cancelled report its error.
func (v *HeaderVerifier) VerifyHeaders(ctx context.Context, headers []*types.Header) []error {
	results := make([]error, len(headers))
	if len(headers) == 0 {
		return results
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range headers {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			if i == 0 {
				results[i] = v.VerifyHeader(headers[0])
				return nil
			}
			parent := headers[i-1]
			if headers[i].Number.Uint64() != parent.Number.Uint64()+1 || headers[i].ParentHash != parent.Hash() {
				// Not contiguous, fall back to the chain for the parent.
				results[i] = v.VerifyHeader(headers[i])
				return nil
			}
			results[i] = v.verify(headers[i], parent)
			return nil
		})
	}
	g.Wait()
	return results
}

// VerifyUncles verifies that the uncles of a block conform to the ommer rules
// of the block's fork.
func (v *HeaderVerifier) VerifyUncles(block *types.Block) error {
	if len(block.Uncles()) == 0 {
		return nil
	}
	if len(block.Uncles()) > maxUncles {
		return errTooManyUncles
	}
	// Gather the set of past uncles and ancestors
	var (
		uncles    = mapset.NewSet[common.Hash]()
		ancestors = make(map[common.Hash]*types.Header)
	)
	number, parent := block.NumberU64()-1, block.ParentHash()
	for i := 0; i < 7; i++ {
		ancestor := v.chain.GetHeader(parent, number)
		if ancestor == nil {
			break
		}
		ancestors[ancestor.Hash()] = ancestor
		if number == 0 {
			break
		}
		number, parent = number-1, ancestor.ParentHash
	}
	ancestors[block.Hash()] = block.Header()
	uncles.Add(block.Hash())

	for _, uncle := range block.Uncles() {
		// Make sure every uncle is rewarded only once
		hash := uncle.Hash()
		if uncles.Contains(hash) {
			return errDuplicateUncle
		}
		uncles.Add(hash)

		// Make sure the uncle has a valid ancestry
		if ancestors[hash] != nil {
			return errUncleIsAncestor
		}
		if ancestors[uncle.ParentHash] == nil || uncle.ParentHash == block.ParentHash() {
			return errDanglingUncle
		}
		rules := v.schedule.OmmerRuleSet(block.NumberU64())
		ctx := v.schedule.Context(uncle.Number.Uint64(), uint64(v.now().Unix()))
		if err := rules.Validate(uncle, ancestors[uncle.ParentHash], ctx); err != nil {
			return fmt.Errorf("uncle %x: %w", hash, err)
		}
	}
	return nil
}
