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
	"errors"
	"math/big"
	"testing"

	"github.com/chainadmit/chainadmit/core/feemarket"
	"github.com/chainadmit/chainadmit/core/state"
	"github.com/chainadmit/chainadmit/core/types"
	"github.com/chainadmit/chainadmit/crypto"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	testKey, _ = crypto.HexToKey("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr   = crypto.PubkeyToAddress(testKey.PubKey())
	testTo     = common.HexToAddress("0xb94f5374fce5edbc8e2a8697c15331677e6ebf0b")
	otherAddr  = common.HexToAddress("0x0000000000000000000000000000000000000bad")

	testSigner = types.LatestSignerForChainID(params.TestChainConfig.ChainID)
)

func newLondonValidator(opts Options) *Validator {
	return New(params.TestChainConfig, big.NewInt(1), feemarket.London(0), opts)
}

func dynamicTx(nonce uint64, gas uint64, feeCap, tip int64) *types.Transaction {
	return types.MustSignNewTx(testKey, testSigner, &types.DynamicFeeTx{
		ChainID:   params.TestChainConfig.ChainID,
		Nonce:     nonce,
		To:        &testTo,
		Gas:       gas,
		GasFeeCap: big.NewInt(feeCap),
		GasTipCap: big.NewInt(tip),
		Value:     big.NewInt(100),
	})
}

func legacyTx(nonce uint64, gas uint64, price int64) *types.Transaction {
	return types.MustSignNewTx(testKey, testSigner, &types.LegacyTx{
		Nonce:    nonce,
		To:       &testTo,
		Gas:      gas,
		GasPrice: big.NewInt(price),
		Value:    big.NewInt(100),
	})
}

func TestPresetFlags(t *testing.T) {
	tests := []struct {
		policy Policy
		flags  [6]bool // future nonce, exceed balance, underpriced, onchain, local, contract sender
	}{
		{BlockProcessing, [6]bool{false, false, false, true, false, false}},
		{TransactionPool, [6]bool{true, false, true, true, true, false}},
		{Mining, [6]bool{false, false, false, true, true, false}},
		{BlockReplay, [6]bool{false, false, false, false, false, false}},
		{Simulation, [6]bool{false, false, false, false, false, true}},
		{SimulationAllowFutureNonce, [6]bool{true, false, false, false, false, true}},
		{SimulationAllowUnderpricedAndFutureNonce, [6]bool{true, false, true, false, false, true}},
		{SimulationAllowExceedingBalance, [6]bool{false, true, false, false, false, true}},
		{SimulationAllowExceedingBalanceAndFutureNonce, [6]bool{true, true, false, false, false, true}},
	}
	require.Len(t, Presets, len(tests))
	for i, tt := range tests {
		have := [6]bool{
			tt.policy.AllowFutureNonce(),
			tt.policy.AllowExceedingBalance(),
			tt.policy.AllowUnderpriced(),
			tt.policy.CheckOnchainPermissions(),
			tt.policy.CheckLocalPermissions(),
			tt.policy.AllowContractSender(),
		}
		if have != tt.flags {
			t.Errorf("%s: have %v, want %v", tt.policy, have, tt.flags)
		}
		require.Equal(t, tt.policy, Presets[i])
	}
}

func TestValidateStructural(t *testing.T) {
	v := newLondonValidator(Options{})
	baseFee := big.NewInt(10)

	require.NoError(t, v.Validate(dynamicTx(0, 21000, 20, 2), baseFee, BlockProcessing))
	require.NoError(t, v.Validate(legacyTx(0, 21000, 20), baseFee, BlockProcessing))

	tests := []struct {
		name string
		tx   *types.Transaction
		want error
	}{
		{"intrinsic gas", dynamicTx(0, 20999, 20, 2), ErrIntrinsicGas},
		{"tip above cap", dynamicTx(0, 21000, 20, 21), ErrTipAboveFeeCap},
		{"wrong chain", types.MustSignNewTx(testKey, types.NewLondonSigner(big.NewInt(1)), &types.LegacyTx{To: &testTo, Gas: 21000, GasPrice: big.NewInt(20)}), ErrWrongChainID},
		{"bad signature", types.NewTx(&types.LegacyTx{To: &testTo, Gas: 21000, GasPrice: big.NewInt(20), V: big.NewInt(27), R: big.NewInt(1), S: new(big.Int).Lsh(common.Big1, 255)}), ErrInvalidSignature},
	}
	for _, tt := range tests {
		err := v.Validate(tt.tx, baseFee, BlockProcessing)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: have %v, want %v", tt.name, err, tt.want)
		}
		require.Equal(t, Structural, KindOf(err), tt.name)
	}
}

func TestValidateTypeBeforeFork(t *testing.T) {
	v := New(params.TestPreLondonConfig, big.NewInt(1), nil, Options{})
	err := v.Validate(dynamicTx(0, 21000, 20, 2), nil, BlockProcessing)
	require.ErrorIs(t, err, ErrTxTypeNotSupported)
}

func TestValidateUnderpriced(t *testing.T) {
	v := newLondonValidator(Options{})
	tx := dynamicTx(0, 21000, 5, 1)
	baseFee := big.NewInt(10)

	err := v.Validate(tx, baseFee, BlockProcessing)
	require.ErrorIs(t, err, ErrFeeCapTooLow)
	require.Equal(t, Relaxable, KindOf(err))

	require.NoError(t, v.Validate(tx, baseFee, TransactionPool))
	require.NoError(t, v.Validate(tx, baseFee, SimulationAllowUnderpricedAndFutureNonce))
	require.NoError(t, v.Validate(tx, nil, BlockProcessing))
}

func TestValidateOnchainPermissions(t *testing.T) {
	v := newLondonValidator(Options{Onchain: NewAccountAllowlist(otherAddr)})
	tx := dynamicTx(0, 21000, 20, 2)

	for _, policy := range Presets {
		err := v.Validate(tx, nil, policy)
		if policy.CheckOnchainPermissions() {
			require.ErrorIs(t, err, ErrSenderNotAuthorized, policy.String())
		} else {
			require.NoError(t, err, policy.String())
		}
	}
}

func TestValidateForSender(t *testing.T) {
	v := newLondonValidator(Options{})
	rich := state.NewAccount(5, uint256.NewInt(1_000_000_000))
	poor := state.NewAccount(5, uint256.NewInt(1))
	contract := state.NewAccount(5, uint256.NewInt(1_000_000_000))
	contract.CodeHash = common.HexToHash("0xc0de")

	tests := []struct {
		name    string
		tx      *types.Transaction
		account *state.Account
		want    error
		relax   func(Policy) bool // nil if no policy relaxes the failure
	}{
		{"valid", dynamicTx(5, 21000, 20, 2), rich, nil, nil},
		{"stale nonce", dynamicTx(4, 21000, 20, 2), rich, ErrNonceTooLow, nil},
		{"future nonce", dynamicTx(6, 21000, 20, 2), rich, ErrNonceTooHigh, Policy.AllowFutureNonce},
		{"insufficient funds", dynamicTx(5, 21000, 20, 2), poor, ErrInsufficientFunds, Policy.AllowExceedingBalance},
		{"missing account", dynamicTx(0, 21000, 20, 2), nil, ErrInsufficientFunds, Policy.AllowExceedingBalance},
		{"contract sender", dynamicTx(5, 21000, 20, 2), contract, ErrSenderNotEOA, Policy.AllowContractSender},
	}
	for _, tt := range tests {
		for _, policy := range Presets {
			err := v.ValidateForSender(tt.tx, tt.account, policy)
			if tt.want == nil || (tt.relax != nil && tt.relax(policy)) {
				if err != nil {
					t.Errorf("%s/%s: unexpected error %v", tt.name, policy, err)
				}
				continue
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("%s/%s: have %v, want %v", tt.name, policy, err, tt.want)
			}
		}
	}
}

func TestValidateLocalPermissions(t *testing.T) {
	allow := NewAccountAllowlist()
	v := newLondonValidator(Options{Local: allow})
	tx := dynamicTx(0, 21000, 20, 2)
	acct := state.NewAccount(0, uint256.NewInt(1_000_000_000))

	require.ErrorIs(t, v.ValidateForSender(tx, acct, Mining), ErrSenderNotAuthorized)
	require.ErrorIs(t, v.ValidateForSender(tx, acct, TransactionPool), ErrSenderNotAuthorized)
	require.NoError(t, v.ValidateForSender(tx, acct, BlockProcessing))

	allow.Add(testAddr)
	require.NoError(t, v.ValidateForSender(tx, acct, Mining))
	allow.Remove(testAddr)
	require.ErrorIs(t, v.ValidateForSender(tx, acct, Mining), ErrSenderNotAuthorized)
}

func TestValidatePrivacy(t *testing.T) {
	tx, err := types.SignPrivacyTx(&types.LegacyTx{To: &testTo, Gas: 21000, GasPrice: big.NewInt(20), Value: new(big.Int)}, testKey)
	require.NoError(t, err)
	require.True(t, tx.IsPrivate())

	require.NoError(t, newLondonValidator(Options{Privacy: true}).Validate(tx, nil, TransactionPool))
	require.Error(t, newLondonValidator(Options{}).Validate(tx, nil, TransactionPool))
}

func TestIntrinsicGas(t *testing.T) {
	al := types.AccessList{{Address: testTo, StorageKeys: []common.Hash{{1}, {2}}}}
	tests := []struct {
		data      []byte
		al        types.AccessList
		create    bool
		homestead bool
		eip2028   bool
		want      uint64
	}{
		{nil, nil, false, true, true, 21000},
		{[]byte{0, 1}, nil, false, true, true, 21000 + 4 + 16},
		{[]byte{0, 1}, nil, false, true, false, 21000 + 4 + 68},
		{nil, nil, true, true, true, 53000},
		{nil, nil, true, false, true, 21000},
		{nil, al, false, true, true, 21000 + 2400 + 2*1900},
	}
	for i, tt := range tests {
		have, err := IntrinsicGas(tt.data, tt.al, tt.create, tt.homestead, tt.eip2028)
		require.NoError(t, err)
		if have != tt.want {
			t.Errorf("test %d: have %d, want %d", i, have, tt.want)
		}
	}
}

func TestReasonKinds(t *testing.T) {
	require.Equal(t, Transient, KindOf(ErrStateUnavailable))
	require.Equal(t, PoolCapacity, KindOf(ErrAlreadyKnown))
	require.Equal(t, "EXCEEDS_BLOCK_GAS_LIMIT", ErrExceedsBlockGasLimit.Code())

	r, ok := ReasonOf(errors.Join(errors.New("context"), ErrNonceTooHigh))
	require.True(t, ok)
	require.Equal(t, ErrNonceTooHigh, r)
}
