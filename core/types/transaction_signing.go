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
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/chainadmit/chainadmit/crypto"
	"github.com/chainadmit/chainadmit/params"
	"github.com/ethereum/go-ethereum/common"
)

var (
	errInvalidPubkey = errors.New("invalid public key")

	big8 = big.NewInt(8)
)

// sigCache pins a recovered sender to the signer that recovered it.
type sigCache struct {
	signer Signer
	from   common.Address
}

// Signer recovers senders and converts raw signatures into transaction
// signature values. Each implementation follows the signing rules of one fork.
type Signer interface {
	// Sender recovers the address that signed tx.
	Sender(tx *Transaction) (common.Address, error)

	// SignatureValues converts a [R || S || V] signature, V being 0 or 1,
	// into the values stored in tx.
	SignatureValues(tx *Transaction, sig []byte) (r, s, v *big.Int, err error)
	ChainID() *big.Int

	// Hash is the digest a sender signs. It is not the transaction hash.
	Hash(tx *Transaction) common.Hash

	Equal(Signer) bool
}

// MakeSigner picks the signer for transactions included at blockNumber.
func MakeSigner(config *params.ChainConfig, blockNumber *big.Int) Signer {
	if config.IsLondon(blockNumber) {
		return NewLondonSigner(config.ChainID)
	}
	if config.IsEIP155(blockNumber) {
		return NewEIP155Signer(config.ChainID)
	}
	if config.IsHomestead(blockNumber) {
		return HomesteadSigner{}
	}
	return FrontierSigner{}
}

// LatestSignerForChainID returns a signer accepting every transaction kind
// known to this package, or a homestead signer when chainID is nil.
func LatestSignerForChainID(chainID *big.Int) Signer {
	if chainID != nil {
		return NewLondonSigner(chainID)
	}
	return HomesteadSigner{}
}

// SignTx signs tx with prv following the rules of s.
func SignTx(tx *Transaction, s Signer, prv *btcec.PrivateKey) (*Transaction, error) {
	digest := s.Hash(tx)
	sig, err := crypto.Sign(digest[:], prv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(s, sig)
}

// SignNewTx wraps txdata into a transaction and signs it.
func SignNewTx(prv *btcec.PrivateKey, s Signer, txdata TxData) (*Transaction, error) {
	return SignTx(NewTx(txdata), s, prv)
}

// MustSignNewTx is SignNewTx panicking on error.
func MustSignNewTx(prv *btcec.PrivateKey, s Signer, txdata TxData) *Transaction {
	tx, err := SignNewTx(prv, s, txdata)
	if err != nil {
		panic(err)
	}
	return tx
}

// Sender recovers the sender of tx. The result is cached on the transaction
// and reused as long as later calls pass an equal signer.
func Sender(signer Signer, tx *Transaction) (common.Address, error) {
	if sc := tx.from.Load(); sc != nil && sc.signer.Equal(signer) {
		return sc.from, nil
	}
	from, err := signer.Sender(tx)
	if err != nil {
		return common.Address{}, err
	}
	tx.from.Store(&sigCache{signer: signer, from: from})
	return from, nil
}

// FrontierSigner accepts unprotected legacy transactions with any s value.
type FrontierSigner struct{}

func (FrontierSigner) ChainID() *big.Int { return nil }

func (FrontierSigner) Equal(s2 Signer) bool {
	_, ok := s2.(FrontierSigner)
	return ok
}

func (FrontierSigner) Hash(tx *Transaction) common.Hash {
	return tx.inner.sigHash(nil)
}

func (fs FrontierSigner) Sender(tx *Transaction) (common.Address, error) {
	return unprotectedSender(fs.Hash(tx), tx, false)
}

func (FrontierSigner) SignatureValues(tx *Transaction, sig []byte) (r, s, v *big.Int, err error) {
	if tx.Type() != LegacyTxType {
		return nil, nil, nil, ErrTxTypeNotSupported
	}
	r, s, v = decodeSignature(sig)
	return r, s, v, nil
}

// HomesteadSigner is FrontierSigner with the low-s rule. It is only useful
// for legacy transactions that are deliberately not replay protected.
type HomesteadSigner struct{ FrontierSigner }

func (HomesteadSigner) Equal(s2 Signer) bool {
	_, ok := s2.(HomesteadSigner)
	return ok
}

func (hs HomesteadSigner) Sender(tx *Transaction) (common.Address, error) {
	return unprotectedSender(hs.Hash(tx), tx, true)
}

// unprotectedSender recovers a legacy signature whose v is 27 or 28.
func unprotectedSender(digest common.Hash, tx *Transaction, homestead bool) (common.Address, error) {
	if tx.Type() != LegacyTxType {
		return common.Address{}, ErrTxTypeNotSupported
	}
	v, r, s := tx.RawSignatureValues()
	return recoverPlain(digest, r, s, v, homestead)
}

// EIP155Signer accepts replay protected legacy transactions for its chain
// and falls back to homestead rules for unprotected ones.
type EIP155Signer struct {
	chainId, chainIdMul *big.Int
}

func NewEIP155Signer(chainId *big.Int) EIP155Signer {
	if chainId == nil {
		chainId = new(big.Int)
	}
	return EIP155Signer{
		chainId:    chainId,
		chainIdMul: new(big.Int).Lsh(chainId, 1),
	}
}

func (s EIP155Signer) ChainID() *big.Int { return s.chainId }

func (s EIP155Signer) Equal(s2 Signer) bool {
	other, ok := s2.(EIP155Signer)
	return ok && other.chainId.Cmp(s.chainId) == 0
}

func (s EIP155Signer) Hash(tx *Transaction) common.Hash {
	return tx.inner.sigHash(s.chainId)
}

func (s EIP155Signer) Sender(tx *Transaction) (common.Address, error) {
	if tx.Type() != LegacyTxType {
		return common.Address{}, ErrTxTypeNotSupported
	}
	if !tx.Protected() {
		return HomesteadSigner{}.Sender(tx)
	}
	if err := s.checkChainID(tx.ChainId()); err != nil {
		return common.Address{}, err
	}
	// v = 2*chainId + 35 + recovery id, shifted back onto 27/28.
	v, r, sig := tx.RawSignatureValues()
	plain := new(big.Int).Sub(v, s.chainIdMul)
	plain.Sub(plain, big8)
	return recoverPlain(s.Hash(tx), r, sig, plain, true)
}

func (s EIP155Signer) SignatureValues(tx *Transaction, sig []byte) (r, sv, v *big.Int, err error) {
	if tx.Type() != LegacyTxType {
		return nil, nil, nil, ErrTxTypeNotSupported
	}
	r, sv, v = decodeSignature(sig)
	if s.chainId.Sign() != 0 {
		v = new(big.Int).Add(s.chainIdMul, big.NewInt(int64(sig[crypto.RecoveryIDOffset])+35))
	}
	return r, sv, v, nil
}

func (s EIP155Signer) checkChainID(have *big.Int) error {
	if have.Cmp(s.chainId) != 0 {
		return fmt.Errorf("%w: have %d want %d", ErrInvalidChainId, have, s.chainId)
	}
	return nil
}

// londonSigner adds dynamic fee transactions to EIP155Signer. Their v is the
// bare recovery id and the chain id travels in the payload.
type londonSigner struct{ EIP155Signer }

// NewLondonSigner returns a signer accepting dynamic fee transactions,
// replay protected legacy transactions and unprotected homestead ones.
func NewLondonSigner(chainId *big.Int) Signer {
	return londonSigner{NewEIP155Signer(chainId)}
}

func (s londonSigner) Equal(s2 Signer) bool {
	other, ok := s2.(londonSigner)
	return ok && other.chainId.Cmp(s.chainId) == 0
}

func (s londonSigner) Sender(tx *Transaction) (common.Address, error) {
	if tx.Type() != DynamicFeeTxType {
		return s.EIP155Signer.Sender(tx)
	}
	if err := s.checkChainID(tx.ChainId()); err != nil {
		return common.Address{}, err
	}
	v, r, sig := tx.RawSignatureValues()
	return recoverPlain(s.Hash(tx), r, sig, new(big.Int).Add(v, big.NewInt(27)), true)
}

func (s londonSigner) SignatureValues(tx *Transaction, sig []byte) (r, sv, v *big.Int, err error) {
	inner, ok := tx.inner.(*DynamicFeeTx)
	if !ok {
		return s.EIP155Signer.SignatureValues(tx, sig)
	}
	// A zero chain id means the payload left it unset.
	if inner.ChainID.Sign() != 0 {
		if err := s.checkChainID(inner.ChainID); err != nil {
			return nil, nil, nil, err
		}
	}
	r, sv, _ = decodeSignature(sig)
	return r, sv, big.NewInt(int64(sig[crypto.RecoveryIDOffset])), nil
}

// privacySigner recovers privacy marked legacy transactions, whose v is the
// recovery id plus 37 over the unprotected digest, and hands every other
// transaction to the wrapped signer.
type privacySigner struct{ Signer }

// NewPrivacySigner wraps s so that it also recovers privacy marked senders.
func NewPrivacySigner(s Signer) Signer {
	return privacySigner{s}
}

// SignPrivacyTx signs a copy of txdata with a privacy marker signature.
func SignPrivacyTx(txdata *LegacyTx, prv *btcec.PrivateKey) (*Transaction, error) {
	inner := txdata.copy().(*LegacyTx)
	digest := inner.sigHash(nil)
	sig, err := crypto.Sign(digest[:], prv)
	if err != nil {
		return nil, err
	}
	inner.R, inner.S, _ = decodeSignature(sig)
	inner.V = big.NewInt(int64(sig[crypto.RecoveryIDOffset]) + privateV1)
	return NewTx(inner), nil
}

func (ps privacySigner) Hash(tx *Transaction) common.Hash {
	if tx.IsPrivate() {
		return tx.inner.sigHash(nil)
	}
	return ps.Signer.Hash(tx)
}

func (ps privacySigner) Sender(tx *Transaction) (common.Address, error) {
	if !tx.IsPrivate() {
		return ps.Signer.Sender(tx)
	}
	v, r, s := tx.RawSignatureValues()
	plain := new(big.Int).Sub(v, big.NewInt(privateV1-27))
	return recoverPlain(ps.Hash(tx), r, s, plain, true)
}

func (ps privacySigner) Equal(s2 Signer) bool {
	other, ok := s2.(privacySigner)
	return ok && other.Signer.Equal(ps.Signer)
}

// decodeSignature splits a 65 byte signature into r, s and v = id + 27.
func decodeSignature(sig []byte) (r, s, v *big.Int) {
	if len(sig) != crypto.SignatureLength {
		panic(fmt.Sprintf("signature is %d bytes, want %d", len(sig), crypto.SignatureLength))
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = big.NewInt(int64(sig[crypto.RecoveryIDOffset]) + 27)
	return r, s, v
}

// recoverPlain recovers the signer of digest from r, s and v in {27, 28}.
func recoverPlain(digest common.Hash, r, s, v *big.Int, homestead bool) (common.Address, error) {
	if v.BitLen() > 8 {
		return common.Address{}, ErrInvalidSig
	}
	id := byte(v.Uint64() - 27)
	if !crypto.ValidateSignatureValues(id, r, s, homestead) {
		return common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[crypto.RecoveryIDOffset] = id

	pub, err := crypto.Ecrecover(digest[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errInvalidPubkey
	}
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]), nil
}

// deriveChainId extracts the chain id from a legacy v value, zero for
// unprotected signatures.
func deriveChainId(v *big.Int) *big.Int {
	if v.BitLen() > 64 {
		id := new(big.Int).Sub(v, big.NewInt(35))
		return id.Rsh(id, 1)
	}
	switch raw := v.Uint64(); raw {
	case 27, 28:
		return new(big.Int)
	default:
		return new(big.Int).SetUint64((raw - 35) / 2)
	}
}
