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

// Package txvalidator implements the protocol checks a transaction must pass
// before it may be executed or pooled, parameterised by admission policies.
package txvalidator

// Policy is a fixed combination of the relaxations and permission checks
// applied by one kind of caller. Policies are values of the preset catalog
// below; callers pick a preset rather than assembling flags.
type Policy struct {
	name                    string
	allowFutureNonce        bool
	allowExceedingBalance   bool
	allowUnderpriced        bool
	checkOnchainPermissions bool
	checkLocalPermissions   bool
	allowContractSender     bool
}

var (
	// BlockProcessing validates transactions of imported blocks.
	BlockProcessing = Policy{
		name:                    "blockProcessing",
		checkOnchainPermissions: true,
	}

	// TransactionPool admits transactions into the pending pool. Future nonces
	// and prices below the current base fee may become valid later.
	TransactionPool = Policy{
		name:                    "transactionPool",
		allowFutureNonce:        true,
		allowUnderpriced:        true,
		checkOnchainPermissions: true,
		checkLocalPermissions:   true,
	}

	// Mining selects transactions for a block under construction.
	Mining = Policy{
		name:                    "mining",
		checkOnchainPermissions: true,
		checkLocalPermissions:   true,
	}

	// BlockReplay re-executes already accepted blocks.
	BlockReplay = Policy{
		name: "blockReplay",
	}

	// Simulation runs calls without committing them.
	Simulation = Policy{
		name:                "simulation",
		allowContractSender: true,
	}

	SimulationAllowFutureNonce = Policy{
		name:                "simulationAllowFutureNonce",
		allowFutureNonce:    true,
		allowContractSender: true,
	}

	SimulationAllowUnderpricedAndFutureNonce = Policy{
		name:                "simulationAllowUnderpricedAndFutureNonce",
		allowFutureNonce:    true,
		allowUnderpriced:    true,
		allowContractSender: true,
	}

	SimulationAllowExceedingBalance = Policy{
		name:                  "simulationAllowExceedingBalance",
		allowExceedingBalance: true,
		allowContractSender:   true,
	}

	SimulationAllowExceedingBalanceAndFutureNonce = Policy{
		name:                  "simulationAllowExceedingBalanceAndFutureNonce",
		allowFutureNonce:      true,
		allowExceedingBalance: true,
		allowContractSender:   true,
	}
)

// Presets lists every policy of the catalog.
var Presets = []Policy{
	BlockProcessing,
	TransactionPool,
	Mining,
	BlockReplay,
	Simulation,
	SimulationAllowFutureNonce,
	SimulationAllowUnderpricedAndFutureNonce,
	SimulationAllowExceedingBalance,
	SimulationAllowExceedingBalanceAndFutureNonce,
}

func (p Policy) String() string { return p.name }

func (p Policy) AllowFutureNonce() bool        { return p.allowFutureNonce }
func (p Policy) AllowExceedingBalance() bool   { return p.allowExceedingBalance }
func (p Policy) AllowUnderpriced() bool        { return p.allowUnderpriced }
func (p Policy) CheckOnchainPermissions() bool { return p.checkOnchainPermissions }
func (p Policy) CheckLocalPermissions() bool   { return p.checkLocalPermissions }
func (p Policy) AllowContractSender() bool     { return p.allowContractSender }
