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

// Package schedule maps chain heights onto the protocol specification active
// at them.
package schedule

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/consensus/rules"
	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/txvalidator"
	"github.com/chainadmit/chainadmit/params"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/ethereum/go-ethereum/log"
)

var (
	// ErrNoGenesisSpec is returned if no specification is active at block 0.
	ErrNoGenesisSpec = errors.New("schedule has no specification at block 0")

	// ErrDuplicateMilestone is returned if two specifications activate at the
	// same height.
	ErrDuplicateMilestone = errors.New("duplicate activation height")

	errNoVerifier = errors.New("no proof-of-work verifier configured")
)

// Spec bundles the protocol rules of one fork.
type Spec struct {
	Name  string
	Block uint64 // activation height

	Difficulty  ethash.Calculator
	HeaderRules *rules.RuleSet
	OmmerRules  *rules.RuleSet
	FeeMarket   *feemarket.FeeMarket // nil before the fee market activates
	TxValidator *txvalidator.Validator
	Price       feemarket.PriceCalculator
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s@%d", s.Name, s.Block)
}

// Schedule is an immutable mapping from activation heights to
// specifications. Every height resolves to the spec with the greatest
// activation height not above it.
type Schedule struct {
	specs *treemap.Map // uint64 -> *Spec
}

// New assembles a schedule. One spec must activate at block 0 and no two may
// share an activation height.
func New(specs ...*Spec) (*Schedule, error) {
	tree := treemap.NewWith(utils.UInt64Comparator)
	for _, spec := range specs {
		if _, found := tree.Get(spec.Block); found {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateMilestone, spec.Block)
		}
		tree.Put(spec.Block, spec)
	}
	if _, found := tree.Get(uint64(0)); !found {
		return nil, ErrNoGenesisSpec
	}
	return &Schedule{specs: tree}, nil
}

// ByBlockNumber returns the spec governing the block with the given number.
func (s *Schedule) ByBlockNumber(number uint64) *Spec {
	_, spec := s.specs.Floor(number)
	return spec.(*Spec)
}

// RuleSet returns the header rules of the given block.
func (s *Schedule) RuleSet(number uint64) *rules.RuleSet {
	return s.ByBlockNumber(number).HeaderRules
}

// OmmerRuleSet returns the rules uncles of the given block are held to.
func (s *Schedule) OmmerRuleSet(number uint64) *rules.RuleSet {
	return s.ByBlockNumber(number).OmmerRules
}

// FeeMarket returns the fee market of the given block, if active.
func (s *Schedule) FeeMarket(number uint64) (*feemarket.FeeMarket, bool) {
	fm := s.ByBlockNumber(number).FeeMarket
	return fm, fm.IsActive(number)
}

// Context returns the rule context of the given block at local time now.
func (s *Schedule) Context(number uint64, now uint64) *rules.Context {
	fm, _ := s.FeeMarket(number)
	return &rules.Context{Time: now, FeeMarket: fm}
}

// Specs returns every spec ordered by activation height.
func (s *Schedule) Specs() []*Spec {
	specs := make([]*Spec, 0, s.specs.Size())
	s.specs.Each(func(_ interface{}, v interface{}) {
		specs = append(specs, v.(*Spec))
	})
	return specs
}

// Options carry the node-level collaborators of the specs built from a chain
// config.
type Options struct {
	PoW    ethash.Verifier
	Epochs ethash.EpochCalculator
	Tx     txvalidator.Options
}

type fork struct {
	name  string
	block *big.Int
}

func forks(config *params.ChainConfig) []fork {
	return []fork{
		{"homestead", config.HomesteadBlock},
		{"tangerineWhistle", config.EIP150Block},
		{"spuriousDragon", config.EIP155Block},
		{"spuriousDragon", config.EIP158Block},
		{"byzantium", config.ByzantiumBlock},
		{"constantinople", config.ConstantinopleBlock},
		{"petersburg", config.PetersburgBlock},
		{"istanbul", config.IstanbulBlock},
		{"muirGlacier", config.MuirGlacierBlock},
		{"berlin", config.BerlinBlock},
		{"london", config.LondonBlock},
		{"arrowGlacier", config.ArrowGlacierBlock},
		{"grayGlacier", config.GrayGlacierBlock},
	}
}

// FromConfig derives the schedule of a chain config. Forks activating at the
// same height collapse into one spec named after the later fork.
func FromConfig(config *params.ChainConfig, opts Options) (*Schedule, error) {
	if err := config.CheckConfigForkOrder(); err != nil {
		return nil, err
	}
	if opts.PoW == nil {
		return nil, errNoVerifier
	}
	if opts.Epochs == nil {
		opts.Epochs = ethash.DefaultEpochs{}
	}
	heights := map[uint64]struct{}{0: {}}
	for _, f := range forks(config) {
		if f.block != nil {
			heights[f.block.Uint64()] = struct{}{}
		}
	}
	if dao := config.DAOForkBlock; dao != nil {
		heights[dao.Uint64()] = struct{}{}
		if config.DAOForkSupport {
			heights[dao.Uint64()+params.DAOForkExtraRange.Uint64()] = struct{}{}
		} else {
			heights[dao.Uint64()+1] = struct{}{}
		}
	}
	sorted := make([]uint64, 0, len(heights))
	for h := range heights {
		sorted = append(sorted, h)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var fm *feemarket.FeeMarket
	if config.LondonBlock != nil {
		fm = feemarket.London(config.LondonBlock.Uint64())
	}
	specs := make([]*Spec, 0, len(sorted))
	for _, h := range sorted {
		specs = append(specs, specAt(config, h, fm, opts))
	}
	sched, err := New(specs...)
	if err != nil {
		return nil, err
	}
	log.Debug("Assembled fork schedule", "chainid", config.ChainID, "specs", len(specs))
	return sched, nil
}

func specAt(config *params.ChainConfig, height uint64, fm *feemarket.FeeMarket, opts Options) *Spec {
	number := new(big.Int).SetUint64(height)

	name := "frontier"
	for _, f := range forks(config) {
		if f.block != nil && f.block.Cmp(number) <= 0 {
			name = f.name
		}
	}
	p := rules.Params{
		Difficulty: ethash.CalculatorAt(config, number),
		PoW:        opts.PoW,
		Epochs:     opts.Epochs,
	}
	spec := &Spec{
		Block:      height,
		Difficulty: p.Difficulty,
		Price:      feemarket.Frontier(),
	}
	switch {
	case config.IsLondon(number):
		spec.FeeMarket = fm
		spec.Price = feemarket.LondonCalculator()
		spec.HeaderRules = rules.LondonHeaderValidator(p).Build()
		spec.OmmerRules = rules.LondonOmmerHeaderValidator(p).Build()

	case inDAOExtraRange(config, number):
		name = "dao"
		spec.HeaderRules = rules.DAOHeaderValidator(p).Build()
		spec.OmmerRules = rules.OmmerHeaderValidator(p).Build()

	case isClassicForkBlock(config, number):
		name = "classic"
		spec.HeaderRules = rules.ClassicHeaderValidator(p).Build()
		spec.OmmerRules = rules.OmmerHeaderValidator(p).Build()

	default:
		spec.HeaderRules = rules.MainnetHeaderValidator(p).Build()
		spec.OmmerRules = rules.OmmerHeaderValidator(p).Build()
	}
	spec.Name = name
	spec.TxValidator = txvalidator.New(config, number, spec.FeeMarket, opts.Tx)
	return spec
}

// inDAOExtraRange reports whether the block must carry the DAO extra-data.
func inDAOExtraRange(config *params.ChainConfig, number *big.Int) bool {
	if !config.DAOForkSupport || !config.IsDAOFork(number) {
		return false
	}
	limit := new(big.Int).Add(config.DAOForkBlock, params.DAOForkExtraRange)
	return number.Cmp(limit) < 0
}

// isClassicForkBlock reports whether the block is the first one of the chain
// refusing the DAO fork.
func isClassicForkBlock(config *params.ChainConfig, number *big.Int) bool {
	return !config.DAOForkSupport && config.DAOForkBlock != nil &&
		config.DAOForkBlock.Cmp(params.ClassicForkBlock) == 0 && number.Cmp(params.ClassicForkBlock) == 0
}
