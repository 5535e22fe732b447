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

// Package consensus holds the errors shared by the header validation rules
// and the services running them.
package consensus

import "errors"

var (
	// ErrUnknownAncestor is returned when validating a block requires an ancestor
	// that is unknown.
	ErrUnknownAncestor = errors.New("unknown ancestor")

	// ErrFutureBlock is returned when a block's timestamp is in the future according
	// to the current node.
	ErrFutureBlock = errors.New("block in the future")

	// ErrInvalidNumber is returned if a block's number doesn't equal its parent's
	// plus one.
	ErrInvalidNumber = errors.New("invalid block number")

	// ErrInvalidParentHash is returned if a block does not reference the hash of
	// the header it is validated against.
	ErrInvalidParentHash = errors.New("invalid parent hash")

	// ErrOlderBlockTime is returned if a block's timestamp is not far enough
	// past its parent's.
	ErrOlderBlockTime = errors.New("timestamp older than parent")

	// ErrInvalidDifficulty is returned if the difficulty of a block does not
	// match the one computed from its parent.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrInvalidGasLimit is returned if a block's gas limit is out of range or
	// moved too far from its parent's.
	ErrInvalidGasLimit = errors.New("invalid gas limit")

	// ErrInvalidGasUsed is returned if a block uses more gas than its limit.
	ErrInvalidGasUsed = errors.New("invalid gas used")

	// ErrExtraDataTooLong is returned if a block's extra-data exceeds the
	// allowed size.
	ErrExtraDataTooLong = errors.New("extra-data too long")

	// ErrInvalidPoW is returned if a block's seal does not satisfy its
	// difficulty.
	ErrInvalidPoW = errors.New("invalid proof-of-work")

	// ErrMissingBaseFee is returned if a fee-market block lacks a base fee.
	ErrMissingBaseFee = errors.New("header is missing baseFee")

	// ErrUnexpectedBaseFee is returned if a legacy block carries a base fee.
	ErrUnexpectedBaseFee = errors.New("header carries baseFee before fee market activation")

	// ErrInvalidBaseFee is returned if a block's base fee does not follow from
	// its parent.
	ErrInvalidBaseFee = errors.New("invalid baseFee")

	// ErrBadForkMarker is returned if a hard-fork marker field holds an
	// unexpected value.
	ErrBadForkMarker = errors.New("bad hard-fork marker")
)
