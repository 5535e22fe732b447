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

package schedule

import (
	"math/big"
	"testing"

	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testOptions = Options{PoW: ethash.NewFaker()}

func TestNewValidation(t *testing.T) {
	_, err := New(&Spec{Name: "a", Block: 5})
	require.ErrorIs(t, err, ErrNoGenesisSpec)

	_, err = New(&Spec{Name: "a", Block: 0}, &Spec{Name: "b", Block: 7}, &Spec{Name: "c", Block: 7})
	require.ErrorIs(t, err, ErrDuplicateMilestone)

	s, err := New(&Spec{Name: "b", Block: 10}, &Spec{Name: "a", Block: 0})
	require.NoError(t, err)
	require.Equal(t, "a", s.ByBlockNumber(9).Name)
	require.Equal(t, "b", s.ByBlockNumber(10).Name)
	require.Equal(t, "b", s.ByBlockNumber(1<<40).Name)
	require.Len(t, s.Specs(), 2)
	require.Equal(t, "a", s.Specs()[0].Name)
}

func TestMainnetSchedule(t *testing.T) {
	s, err := FromConfig(params.MainnetChainConfig, testOptions)
	require.NoError(t, err)

	tests := []struct {
		number  uint64
		name    string
		ruleSet string
		london  bool
	}{
		{0, "frontier", "mainnet", false},
		{1_149_999, "frontier", "mainnet", false},
		{1_150_000, "homestead", "mainnet", false},
		{1_920_000, "dao", "dao", false},
		{1_920_009, "dao", "dao", false},
		{1_920_010, "homestead", "mainnet", false},
		{2_675_000, "spuriousDragon", "mainnet", false},
		{7_280_000, "petersburg", "mainnet", false},
		{12_964_999, "berlin", "mainnet", false},
		{12_965_000, "london", "london", true},
		{15_050_000, "grayGlacier", "london", true},
		{20_000_000, "grayGlacier", "london", true},
	}
	for _, tt := range tests {
		spec := s.ByBlockNumber(tt.number)
		if spec.Name != tt.name {
			t.Errorf("block %d: have spec %s, want %s", tt.number, spec.Name, tt.name)
		}
		if have := s.RuleSet(tt.number).Name(); have != tt.ruleSet {
			t.Errorf("block %d: have rule set %s, want %s", tt.number, have, tt.ruleSet)
		}
		fm, active := s.FeeMarket(tt.number)
		if active != tt.london {
			t.Errorf("block %d: have fee market %v, want %v", tt.number, active, tt.london)
		}
		if active {
			require.Equal(t, uint64(12_965_000), fm.ForkBlock)
			require.Equal(t, "london-ommer", s.OmmerRuleSet(tt.number).Name())
		} else {
			require.Equal(t, "ommer", s.OmmerRuleSet(tt.number).Name())
		}
	}
}

func TestClassicSchedule(t *testing.T) {
	s, err := FromConfig(params.ClassicChainConfig, testOptions)
	require.NoError(t, err)

	require.Equal(t, "mainnet", s.RuleSet(1_919_999).Name())
	require.Equal(t, "classic", s.RuleSet(1_920_000).Name())
	require.Equal(t, "mainnet", s.RuleSet(1_920_001).Name())
	_, active := s.FeeMarket(50_000_000)
	require.False(t, active)
}

func TestDevScheduleCollapses(t *testing.T) {
	s, err := FromConfig(params.TestChainConfig, testOptions)
	require.NoError(t, err)

	specs := s.Specs()
	require.Len(t, specs, 1)
	require.Equal(t, "grayGlacier", specs[0].Name)
	_, active := s.FeeMarket(0)
	require.True(t, active)
	require.NotNil(t, specs[0].TxValidator.FeeMarket())
}

func TestMisorderedConfig(t *testing.T) {
	config := *params.MainnetChainConfig
	config.ByzantiumBlock = big.NewInt(1)
	_, err := FromConfig(&config, testOptions)
	require.Error(t, err)

	_, err = FromConfig(params.MainnetChainConfig, Options{})
	require.Error(t, err)
}

func TestDifficultyFollowsSchedule(t *testing.T) {
	s, err := FromConfig(params.MainnetChainConfig, testOptions)
	require.NoError(t, err)

	parent := &types.Header{Number: big.NewInt(4_369_999), Time: 100, Difficulty: big.NewInt(2048 * 1000), UncleHash: types.EmptyUncleHash}
	have := s.ByBlockNumber(4_370_000).Difficulty(105, parent)
	require.Equal(t, ethash.CalcDifficulty(params.MainnetChainConfig, 105, parent), have)
}

func TestLookupIsFloor(t *testing.T) {
	s, err := FromConfig(params.MainnetChainConfig, testOptions)
	require.NoError(t, err)
	specs := s.Specs()

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(0, 30_000_000).Draw(t, "n")
		spec := s.ByBlockNumber(n)
		if spec.Block > n {
			t.Fatalf("block %d resolved to %v activating later", n, spec)
		}
		for _, other := range specs {
			if other.Block > spec.Block && other.Block <= n {
				t.Fatalf("block %d resolved to %v, but %v activates in between", n, spec, other)
			}
		}
	})
}
