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

package txvalidator

import "errors"

// Kind classifies why a transaction was refused.
type Kind int

const (
	// Structural failures are protocol violations that never become valid.
	Structural Kind = iota
	// Relaxable failures are refused under strict policies only.
	Relaxable
	// Transient failures reflect the local node, not the transaction.
	Transient
	// PoolCapacity failures are expected, high frequency pool refusals.
	PoolCapacity
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Relaxable:
		return "relaxable"
	case Transient:
		return "transient"
	case PoolCapacity:
		return "pool-capacity"
	default:
		return "unknown"
	}
}

// Reason is a refusal code. Reasons are compared by identity, wrapped errors
// carry the details.
type Reason struct {
	code string
	msg  string
	kind Kind
}

func newReason(code, msg string, kind Kind) *Reason {
	return &Reason{code: code, msg: msg, kind: kind}
}

func (r *Reason) Error() string { return r.msg }

// Code returns the stable identifier of the reason.
func (r *Reason) Code() string { return r.code }

// Kind returns the class of the reason.
func (r *Reason) Kind() Kind { return r.kind }

var (
	ErrInvalidSignature       = newReason("INVALID_SIGNATURE", "invalid sender", Structural)
	ErrWrongChainID           = newReason("WRONG_CHAIN_ID", "invalid chain id for signer", Structural)
	ErrTxTypeNotSupported     = newReason("INVALID_TRANSACTION_FORMAT", "transaction type not supported", Structural)
	ErrIntrinsicGas           = newReason("INTRINSIC_GAS_EXCEEDS_GAS_LIMIT", "intrinsic gas too low", Structural)
	ErrTipAboveFeeCap         = newReason("MAX_PRIORITY_FEE_PER_GAS_EXCEEDS_MAX_FEE_PER_GAS", "max priority fee per gas higher than max fee per gas", Structural)
	ErrFeeCapVeryHigh         = newReason("GAS_PRICE_TOO_HIGH", "max fee per gas higher than 2^256-1", Structural)
	ErrNonceTooLow            = newReason("NONCE_TOO_LOW", "nonce too low", Structural)
	ErrSenderNotEOA           = newReason("TX_SENDER_NOT_AUTHORIZED_CONTRACT", "sender not an eoa", Structural)
	ErrSenderNotAuthorized    = newReason("TX_SENDER_NOT_AUTHORIZED", "sender not authorized", Structural)
	ErrEtherValueNotSupported = newReason("ETHER_VALUE_NOT_SUPPORTED", "privacy transactions cannot transfer value", Structural)
	ErrExceedsBlockGasLimit   = newReason("EXCEEDS_BLOCK_GAS_LIMIT", "exceeds block gas limit", Structural)

	ErrNonceTooHigh      = newReason("NONCE_TOO_HIGH", "nonce too high", Relaxable)
	ErrInsufficientFunds = newReason("UPFRONT_COST_EXCEEDS_BALANCE", "insufficient funds for gas * price + value", Relaxable)
	ErrFeeCapTooLow      = newReason("GAS_PRICE_BELOW_CURRENT_BASE_FEE", "max fee per gas less than block base fee", Relaxable)

	ErrStateUnavailable = newReason("CHAIN_HEAD_WORLD_STATE_NOT_AVAILABLE", "chain head world state not available", Transient)

	ErrAlreadyKnown       = newReason("TRANSACTION_ALREADY_KNOWN", "already known", PoolCapacity)
	ErrUnderpriced        = newReason("GAS_PRICE_TOO_LOW", "transaction underpriced", PoolCapacity)
	ErrReplaceUnderpriced = newReason("TRANSACTION_REPLACEMENT_UNDERPRICED", "replacement transaction underpriced", PoolCapacity)
	ErrTxFeeCapExceeded   = newReason("TX_FEECAP_EXCEEDED", "tx fee exceeds the configured cap", Structural)
)

// ReasonOf extracts the refusal reason from an error chain.
func ReasonOf(err error) (*Reason, bool) {
	var r *Reason
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// KindOf returns the class of a refusal. Errors without a reason are
// considered structural.
func KindOf(err error) Kind {
	if r, ok := ReasonOf(err); ok {
		return r.kind
	}
	return Structural
}
