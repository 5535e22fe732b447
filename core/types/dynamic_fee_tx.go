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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address `json:"address"     gencodec:"required"`
	StorageKeys []common.Hash  `json:"storageKeys" gencodec:"required"`
}

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}

// DynamicFeeTx is a fee-market transaction. The sender pays the base fee of
// the including block plus at most GasTipCap, and never more than GasFeeCap
// per gas in total. Field order is the consensus encoding.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int // max priority fee per gas
	GasFeeCap  *big.Int // max fee per gas
	Gas        uint64
	To         *common.Address `rlp:"nil"` // nil means contract creation
	Value      *big.Int
	Data       []byte
	AccessList AccessList

	V *big.Int `json:"v" gencodec:"required"`
	R *big.Int `json:"r" gencodec:"required"`
	S *big.Int `json:"s" gencodec:"required"`
}

func (tx *DynamicFeeTx) copy() TxData {
	cpy := *tx
	cpy.To = copyAddressPtr(tx.To)
	cpy.Data = common.CopyBytes(tx.Data)
	cpy.AccessList = make(AccessList, len(tx.AccessList))
	copy(cpy.AccessList, tx.AccessList)

	cpy.ChainID, cpy.Value = copyBig(tx.ChainID), copyBig(tx.Value)
	cpy.GasTipCap, cpy.GasFeeCap = copyBig(tx.GasTipCap), copyBig(tx.GasFeeCap)
	cpy.V, cpy.R, cpy.S = copyBig(tx.V), copyBig(tx.R), copyBig(tx.S)
	return &cpy
}

func (tx *DynamicFeeTx) txType() byte           { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int      { return tx.ChainID }
func (tx *DynamicFeeTx) accessList() AccessList { return tx.AccessList }
func (tx *DynamicFeeTx) data() []byte           { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64            { return tx.Gas }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int    { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int    { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasPrice() *big.Int     { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *big.Int        { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64          { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address    { return tx.To }

// effectiveGasPrice is min(GasFeeCap, baseFee+GasTipCap), or the fee cap when
// no base fee is known.
func (tx *DynamicFeeTx) effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return dst.Set(tx.GasFeeCap)
	}
	dst.Add(baseFee, tx.GasTipCap)
	if dst.Cmp(tx.GasFeeCap) > 0 {
		dst.Set(tx.GasFeeCap)
	}
	return dst
}

func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

func (tx *DynamicFeeTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

// sigHash covers every field but the signature, under the type prefix.
func (tx *DynamicFeeTx) sigHash(chainID *big.Int) common.Hash {
	unsigned := []any{chainID, tx.Nonce, tx.GasTipCap, tx.GasFeeCap, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList}
	return prefixedRlpHash(DynamicFeeTxType, unsigned)
}
