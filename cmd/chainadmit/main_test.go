// Copyright 2024 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/txpool"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func runApp(args ...string) error {
	return app.Run(append([]string{"chainadmit", "--verbosity", "0"}, args...))
}

func TestDumpConfigRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, runApp("--network", "dev", "--fakepow", "dumpconfig", file))

	cfg := defaultConfig()
	require.NoError(t, loadConfig(file, &cfg))

	want := defaultConfig()
	want.Network = "dev"
	want.Verify.FakePoW = true
	require.Equal(t, want, cfg)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte("Network = \"classic\"\n\n[TxPool]\nPriceLimit = 7\nGlobalSlots = 64\n"), 0644))
	cfg := defaultConfig()
	require.NoError(t, loadConfig(good, &cfg))
	require.Equal(t, "classic", cfg.Network)
	require.Equal(t, uint64(7), cfg.TxPool.PriceLimit)
	require.Equal(t, uint64(64), cfg.TxPool.GlobalSlots)
	require.Equal(t, txpool.DefaultConfig.PriceBump, cfg.TxPool.PriceBump)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[TxPool]\nPriceFloor = 7\n"), 0644))
	err := loadConfig(bad, &cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), bad)
	require.Contains(t, err.Error(), "PriceFloor")
}

func TestUnknownNetwork(t *testing.T) {
	require.ErrorContains(t, runApp("--network", "ropsten", "dumpconfig", filepath.Join(t.TempDir(), "x.toml")), "unknown network")
}

// devHeaders returns a genesis header followed by n valid children on the dev
// network.
func devHeaders(n int) []*types.Header {
	fm := feemarket.London(0)
	headers := []*types.Header{{
		UncleHash:  types.EmptyUncleHash,
		Number:     big.NewInt(0),
		Difficulty: new(big.Int).Set(params.GenesisDifficulty),
		GasLimit:   8_000_000,
		Time:       1000,
		BaseFee:    big.NewInt(params.InitialBaseFee),
	}}
	for i := 0; i < n; i++ {
		parent := headers[len(headers)-1]
		child := &types.Header{
			ParentHash: parent.Hash(),
			UncleHash:  types.EmptyUncleHash,
			Number:     new(big.Int).Add(parent.Number, common.Big1),
			Time:       parent.Time + 10,
			GasLimit:   parent.GasLimit,
			BaseFee:    fm.NextBaseFee(parent),
		}
		child.Difficulty = ethash.CalcDifficulty(params.TestChainConfig, child.Time, parent)
		headers = append(headers, child)
	}
	return headers
}

func writeHeaders(t *testing.T, headers []*types.Header) string {
	t.Helper()

	blob, err := json.Marshal(headers)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "headers.json")
	require.NoError(t, os.WriteFile(file, blob, 0644))
	return file
}

func TestVerifyHeadersCommand(t *testing.T) {
	headers := devHeaders(8)
	require.NoError(t, runApp("--network", "dev", "--fakepow", "verifyheaders", writeHeaders(t, headers)))

	// Break the gas usage of the last header
	headers[len(headers)-1].GasUsed = headers[len(headers)-1].GasLimit + 1
	err := runApp("--network", "dev", "--fakepow", "verifyheaders", writeHeaders(t, headers))
	require.ErrorContains(t, err, "1 of 8 headers failed verification")
}

func TestVerifyHeadersArguments(t *testing.T) {
	require.Error(t, runApp("verifyheaders"))
	require.ErrorContains(t, runApp("--network", "dev", "verifyheaders", writeHeaders(t, devHeaders(0))), "anchor")
}

func TestVerbosityRange(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, runApp("--verbosity", "5", "dumpconfig", file))
	require.ErrorContains(t, runApp("--verbosity", "6", "dumpconfig", file), "invalid verbosity 6")
	require.ErrorContains(t, runApp("--verbosity", "-1", "dumpconfig", file), "invalid verbosity -1")
	require.Contains(t, verbosityFlag.Usage, "0=crit")
}

func TestVerifyHeadersUsageNamesHasher(t *testing.T) {
	require.Contains(t, verifyHeadersCommand.Description, "--fakepow")
	require.Contains(t, verifyHeadersCommand.Description, "not the ethash dataset")
}
