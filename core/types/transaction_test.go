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

package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/chainadmit/chainadmit/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	testKey, _ = crypto.HexToKey("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr   = crypto.PubkeyToAddress(testKey.PubKey())
	testTo     = common.HexToAddress("b94f5374fce5edbc8e2a8697c15331677e6ebf0b")
)

func TestEmptyUncleHash(t *testing.T) {
	want := common.HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
	if EmptyUncleHash != want {
		t.Fatalf("empty uncle hash mismatch: have %x, want %x", EmptyUncleHash, want)
	}
}

func TestLegacySenderRecovery(t *testing.T) {
	signer := NewEIP155Signer(big.NewInt(18))
	tx := MustSignNewTx(testKey, signer, &LegacyTx{
		Nonce:    0,
		To:       &testTo,
		Value:    big.NewInt(10),
		Gas:      50000,
		GasPrice: big.NewInt(1),
	})
	if !tx.Protected() {
		t.Fatal("expected tx to be protected")
	}
	if tx.ChainId().Cmp(big.NewInt(18)) != 0 {
		t.Fatalf("chain id mismatch: have %v, want 18", tx.ChainId())
	}
	from, err := Sender(signer, tx)
	require.NoError(t, err)
	if from != testAddr {
		t.Fatalf("sender mismatch: have %x, want %x", from, testAddr)
	}
	// A signer for another chain must refuse the transaction.
	_, err = NewEIP155Signer(big.NewInt(1)).Sender(tx)
	if !errors.Is(err, ErrInvalidChainId) {
		t.Fatalf("wrong chain id error: have %v, want %v", err, ErrInvalidChainId)
	}
}

func TestDynamicFeeSenderAndHash(t *testing.T) {
	signer := NewLondonSigner(big.NewInt(1))
	tx := MustSignNewTx(testKey, signer, &DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     3,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(10),
		Gas:       21000,
		To:        &testTo,
		Value:     big.NewInt(0),
	})
	from, err := Sender(signer, tx)
	require.NoError(t, err)
	require.Equal(t, testAddr, from)
	require.Equal(t, uint8(DynamicFeeTxType), tx.Type())

	// The hash must not depend on the cache state.
	h := tx.Hash()
	require.Equal(t, h, NewTx(tx.inner).Hash())

	// Legacy-only signers must reject typed transactions.
	_, err = HomesteadSigner{}.Sender(tx)
	require.ErrorIs(t, err, ErrTxTypeNotSupported)
}

func TestEffectiveGasPrice(t *testing.T) {
	tx := NewTx(&DynamicFeeTx{
		ChainID:   big.NewInt(1),
		GasTipCap: big.NewInt(5),
		GasFeeCap: big.NewInt(100),
		Gas:       21000,
	})
	tests := []struct {
		baseFee *big.Int
		want    int64
	}{
		{nil, 100},
		{big.NewInt(0), 5},
		{big.NewInt(50), 55},
		{big.NewInt(95), 100},
		{big.NewInt(99), 100},
		{big.NewInt(150), 100},
	}
	for i, tt := range tests {
		if have := tx.EffectiveGasPrice(tt.baseFee); have.Int64() != tt.want {
			t.Errorf("test %d: effective price mismatch: have %v, want %d", i, have, tt.want)
		}
	}
	legacy := NewTransaction(0, testTo, big.NewInt(0), 21000, big.NewInt(7), nil)
	if have := legacy.EffectiveGasPrice(big.NewInt(100)); have.Int64() != 7 {
		t.Fatalf("legacy effective price: have %v, want 7", have)
	}
	if _, err := tx.EffectiveGasTip(big.NewInt(101)); !errors.Is(err, ErrGasFeeCapTooLow) {
		t.Fatalf("fee cap below base fee: have %v, want %v", err, ErrGasFeeCapTooLow)
	}
}

func TestPrivacySigner(t *testing.T) {
	inner := &LegacyTx{Nonce: 1, To: &testTo, Gas: 21000, GasPrice: big.NewInt(1), Value: new(big.Int)}
	h := NewTx(inner).inner.sigHash(nil)
	sig, err := crypto.Sign(h[:], testKey)
	require.NoError(t, err)

	signed := inner.copy().(*LegacyTx)
	signed.R, signed.S, _ = decodeSignature(sig)
	signed.V = big.NewInt(int64(sig[64]) + privateV1)
	tx := NewTx(signed)
	require.True(t, tx.IsPrivate())

	signer := NewPrivacySigner(NewLondonSigner(big.NewInt(10)))
	from, err := Sender(signer, tx)
	require.NoError(t, err)
	require.Equal(t, testAddr, from)

	// Regular transactions still go through the wrapped signer.
	regular := MustSignNewTx(testKey, signer, &LegacyTx{Nonce: 2, To: &testTo, Gas: 21000, GasPrice: big.NewInt(1)})
	require.False(t, regular.IsPrivate())
	from, err = Sender(signer, regular)
	require.NoError(t, err)
	require.Equal(t, testAddr, from)
}

func TestTxDifference(t *testing.T) {
	a := NewTransaction(0, testTo, big.NewInt(1), 21000, big.NewInt(1), nil)
	b := NewTransaction(1, testTo, big.NewInt(1), 21000, big.NewInt(1), nil)
	c := NewTransaction(2, testTo, big.NewInt(1), 21000, big.NewInt(1), nil)

	diff := TxDifference(Transactions{a, b, c}, Transactions{b})
	require.Len(t, diff, 2)
	require.Equal(t, a.Hash(), diff[0].Hash())
	require.Equal(t, c.Hash(), diff[1].Hash())
}
