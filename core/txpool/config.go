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
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/log"
)

// DefaultSyncTolerance is the number of blocks the node may trail the best
// known peer by before remote transactions are discarded.
const DefaultSyncTolerance = 100

// Config are the configuration parameters of the transaction pool.
type Config struct {
	PriceLimit uint64 // Minimum gas price to admit remote transactions
	PriceBump  uint64 // Minimum price bump percentage to replace an already existing transaction (nonce)
	TxFeeCap   uint64 // Maximum price per gas in wei a local transaction may pay in the next block, zero disables the cap

	GlobalSlots   uint64 // Maximum number of transactions held by the pool
	SyncTolerance uint64 // Blocks the node may lag behind and still accept remote transactions
	AnnounceSlots int    // Maximum number of announced but unfetched hashes tracked

	Privacy bool // Accept privacy marked transactions carrying no value
}

// DefaultConfig contains the default configurations for the transaction pool.
var DefaultConfig = Config{
	PriceLimit: 1,
	PriceBump:  10,
	TxFeeCap:   params.Ether,

	GlobalSlots:   4096,
	SyncTolerance: DefaultSyncTolerance,
	AnnounceSlots: 4096,
}

// sanitize checks the provided user configurations and changes anything that's
// unreasonable or unworkable.
func (config *Config) sanitize() Config {
	conf := *config
	if conf.PriceLimit < 1 {
		log.Warn("Sanitizing invalid txpool price limit", "provided", conf.PriceLimit, "updated", DefaultConfig.PriceLimit)
		conf.PriceLimit = DefaultConfig.PriceLimit
	}
	if conf.PriceBump < 1 {
		log.Warn("Sanitizing invalid txpool price bump", "provided", conf.PriceBump, "updated", DefaultConfig.PriceBump)
		conf.PriceBump = DefaultConfig.PriceBump
	}
	if conf.GlobalSlots < 1 {
		log.Warn("Sanitizing invalid txpool global slots", "provided", conf.GlobalSlots, "updated", DefaultConfig.GlobalSlots)
		conf.GlobalSlots = DefaultConfig.GlobalSlots
	}
	if conf.AnnounceSlots < 1 {
		log.Warn("Sanitizing invalid txpool announce slots", "provided", conf.AnnounceSlots, "updated", DefaultConfig.AnnounceSlots)
		conf.AnnounceSlots = DefaultConfig.AnnounceSlots
	}
	return conf
}
