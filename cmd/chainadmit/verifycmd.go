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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/chainadmit/chainadmit/consensus/ethash"
	"github.com/chainadmit/chainadmit/core"
	"github.com/chainadmit/chainadmit/core/schedule"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// classicEcip1099Block is the height Ethereum Classic doubled its epoch length at.
const classicEcip1099Block = 11_700_000

var verifyHeadersCommand = &cli.Command{
	Action:    verifyHeaders,
	Name:      "verifyheaders",
	Usage:     "Verify a JSON list of block headers against the fork schedule (keccak seals, see --fakepow)",
	ArgsUsage: "<headers.json>",
	Description: `
The verifyheaders command reads a JSON array of headers. The first header is
trusted as the anchor of the batch, every following header is checked against
the rule set of its fork, using its predecessor in the file as parent.

Seals are checked with a light keccak hasher, not the ethash dataset, so real
mainnet or classic headers only pass with --fakepow.`,
}

// anchorChain is a header reader knowing only the trusted first header.
type anchorChain struct {
	anchor *types.Header
}

func (c *anchorChain) CurrentHeader() *types.Header { return c.anchor }

func (c *anchorChain) GetHeader(hash common.Hash, number uint64) *types.Header {
	if hash == c.anchor.Hash() && number == c.anchor.Number.Uint64() {
		return c.anchor
	}
	return nil
}

func (c *anchorChain) GetHeaderByHash(hash common.Hash) *types.Header {
	if hash == c.anchor.Hash() {
		return c.anchor
	}
	return nil
}

func readHeaders(file string) ([]*types.Header, error) {
	blob, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var headers []*types.Header
	if err := json.Unmarshal(blob, &headers); err != nil {
		return nil, fmt.Errorf("%s: %v", file, err)
	}
	return headers, nil
}

func makeSchedule(cfg chainadmitConfig) (*schedule.Schedule, error) {
	config := params.NetworkConfigs[cfg.Network]

	var opts schedule.Options
	if cfg.Verify.FakePoW {
		opts.PoW = ethash.NewFaker()
	} else {
		opts.PoW = ethash.NewVerifier(ethash.KeccakHasher{})
	}
	if config == params.ClassicChainConfig {
		opts.Epochs = ethash.Ecip1099Epochs{Activation: classicEcip1099Block}
	}
	return schedule.FromConfig(config, opts)
}

// verifyHeaders is the verifyheaders command.
func verifyHeaders(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected a single headers file")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	headers, err := readHeaders(ctx.Args().First())
	if err != nil {
		return err
	}
	if len(headers) < 2 {
		return errors.New("headers file needs an anchor and at least one header to verify")
	}
	sched, err := makeSchedule(cfg)
	if err != nil {
		return err
	}
	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer stop()

	var (
		start    = time.Now()
		anchor   = headers[0]
		verifier = core.NewHeaderVerifier(sched, &anchorChain{anchor: anchor})
		results  = verifier.VerifyHeaders(sigctx, headers[1:])
		failed   int
	)
	for i, err := range results {
		header := headers[i+1]
		if err != nil {
			failed++
			log.Error("Invalid header", "number", header.Number, "hash", header.Hash(), "err", err)
			continue
		}
		log.Debug("Verified header", "number", header.Number, "hash", header.Hash(), "fork", sched.ByBlockNumber(header.Number.Uint64()).Name)
	}
	log.Info("Verified headers", "network", cfg.Network, "anchor", anchor.Number, "count", len(results), "failed", failed, "elapsed", common.PrettyDuration(time.Since(start)))
	if failed > 0 {
		return fmt.Errorf("%d of %d headers failed verification", failed, len(results))
	}
	return nil
}

var _ core.ChainHeaderReader = (*anchorChain)(nil)
