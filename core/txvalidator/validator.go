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

import (
	"fmt"
	"math/big"

	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/state"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/params"
	"github.com/holiman/uint256"
)

// Options are the node-level collaborators of a validator.
type Options struct {
	Onchain Filter // consulted by policies checking on-chain permissions
	Local   Filter // consulted by policies checking local permissions
	Privacy bool   // accept privacy marked transactions
}

// Validator runs the checks of one fork. It holds no mutable state and may be
// shared between goroutines.
type Validator struct {
	chainID   *big.Int
	signer    types.Signer
	feeMarket *feemarket.FeeMarket
	opts      Options

	homestead bool
	eip2028   bool
	eip2930   bool
	eip1559   bool
}

// New creates the validator of the fork active at the given block.
func New(config *params.ChainConfig, number *big.Int, fm *feemarket.FeeMarket, opts Options) *Validator {
	signer := types.MakeSigner(config, number)
	if opts.Privacy {
		signer = types.NewPrivacySigner(signer)
	}
	return &Validator{
		chainID:   config.ChainID,
		signer:    signer,
		feeMarket: fm,
		opts:      opts,
		homestead: config.IsHomestead(number),
		eip2028:   config.IsIstanbul(number),
		eip2930:   config.IsBerlin(number),
		eip1559:   fm != nil,
	}
}

// Signer returns the signer senders are recovered with.
func (v *Validator) Signer() types.Signer { return v.signer }

// FeeMarket returns the fee market of the fork, nil before activation.
func (v *Validator) FeeMarket() *feemarket.FeeMarket { return v.feeMarket }

// Validate runs the stateless checks: transaction type, chain id, signature,
// intrinsic gas and fee fields. With a non-nil base fee the fee cap must cover
// it unless the policy allows underpriced transactions.
func (v *Validator) Validate(tx *types.Transaction, baseFee *big.Int, policy Policy) error {
	if tx.Type() == types.DynamicFeeTxType && !v.eip1559 {
		return fmt.Errorf("%w: type %d", ErrTxTypeNotSupported, tx.Type())
	}
	private := v.opts.Privacy && tx.IsPrivate()
	if !private && (tx.Type() != types.LegacyTxType || tx.Protected()) {
		if v.chainID == nil || tx.ChainId().Cmp(v.chainID) != 0 {
			return fmt.Errorf("%w: have %v, want %v", ErrWrongChainID, tx.ChainId(), v.chainID)
		}
	}
	if tx.GasFeeCap().BitLen() > 256 || tx.GasTipCap().BitLen() > 256 {
		return ErrFeeCapVeryHigh
	}
	if tx.GasFeeCap().Cmp(tx.GasTipCap()) < 0 {
		return fmt.Errorf("%w: maxPriorityFeePerGas: %v, maxFeePerGas: %v", ErrTipAboveFeeCap, tx.GasTipCap(), tx.GasFeeCap())
	}
	intrGas, err := IntrinsicGas(tx.Data(), tx.AccessList(), tx.To() == nil, v.homestead, v.eip2028)
	if err != nil {
		return err
	}
	if tx.Gas() < intrGas {
		return fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), intrGas)
	}
	if baseFee != nil && !policy.allowUnderpriced {
		if err := feemarket.CheckPrice(tx, baseFee); err != nil {
			return fmt.Errorf("%w: %v", ErrFeeCapTooLow, err)
		}
	}
	from, err := types.Sender(v.signer, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if policy.checkOnchainPermissions && v.opts.Onchain != nil && !v.opts.Onchain.Permitted(from, tx) {
		return fmt.Errorf("%w: %v", ErrSenderNotAuthorized, from)
	}
	return nil
}

// ValidateForSender runs the checks depending on the sender's account. A nil
// account is treated as empty.
func (v *Validator) ValidateForSender(tx *types.Transaction, account *state.Account, policy Policy) error {
	from, err := types.Sender(v.signer, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var (
		nonce   uint64
		balance = new(uint256.Int)
	)
	if account != nil {
		nonce = account.Nonce
		if account.Balance != nil {
			balance = account.Balance
		}
		if account.IsContract() && !policy.allowContractSender {
			return fmt.Errorf("%w: address %v, codehash: %v", ErrSenderNotEOA, from, account.CodeHash)
		}
	}
	if tx.Nonce() < nonce {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow, from, tx.Nonce(), nonce)
	}
	if tx.Nonce() > nonce && !policy.allowFutureNonce {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh, from, tx.Nonce(), nonce)
	}
	if !policy.allowExceedingBalance {
		cost, overflow := uint256.FromBig(tx.Cost())
		if overflow || balance.Lt(cost) {
			return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFunds, from, balance, tx.Cost())
		}
	}
	if policy.checkLocalPermissions && v.opts.Local != nil && !v.opts.Local.Permitted(from, tx) {
		return fmt.Errorf("%w: %v", ErrSenderNotAuthorized, from)
	}
	return nil
}
