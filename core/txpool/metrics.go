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

import "github.com/chainadmit/chainadmit/metrics"

const (
	sourceLocal  = "local"
	sourceRemote = "remote"
)

var (
	// Metrics for the admission path
	knownTxMeter       = metrics.NewRegisteredCounter("txpool/known", nil)
	invalidTxMeter     = metrics.NewRegisteredCounter("txpool/invalid", nil)
	underpricedTxMeter = metrics.NewRegisteredCounter("txpool/underpriced", nil)
	unsyncedTxMeter    = metrics.NewRegisteredCounter("txpool/unsynced", nil)
	feeCapTxMeter      = metrics.NewRegisteredCounter("txpool/feecap", nil)

	// Metrics for block processing
	includedTxMeter    = metrics.NewRegisteredCounter("txpool/included", nil)
	resubmittedTxMeter = metrics.NewRegisteredCounter("txpool/resubmitted", nil)
)

// newDuplicateCounter registers the duplicate transaction counter, partitioned
// by the path the duplicate arrived on.
func newDuplicateCounter(r metrics.Registry) *metrics.LabelledCounter {
	return metrics.NewRegisteredLabelledCounter("transactions/duplicates/total",
		"Total number of duplicate transactions received", r, "source")
}
