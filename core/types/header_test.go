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
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// Header of mainnet block 1.
var block1JSON = `{
	"parentHash": "0xd4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3",
	"sha3Uncles": "0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347",
	"miner": "0x05a56e2d52c817161883f50c441c3228cfe54d9f",
	"stateRoot": "0xd67e4d450343046425ae4271474353857ab860dbc0a1dde64b41b5cd3a532bf3",
	"transactionsRoot": "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421",
	"receiptsRoot": "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421",
	"logsBloom": "0x00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000",
	"difficulty": "0x3ff800000",
	"number": "0x1",
	"gasLimit": "0x1388",
	"gasUsed": "0x0",
	"timestamp": "0x55ba4224",
	"extraData": "0x476574682f76312e302e302f6c696e75782f676f312e342e32",
	"mixHash": "0x969b900de27b6ac6a67742365dd65f55a0526c41fd18e1b16f1a1215c2e66f59",
	"nonce": "0x539bd4979fef1ec4"
}`

func TestHeaderJSONAndHash(t *testing.T) {
	var h Header
	require.NoError(t, json.Unmarshal([]byte(block1JSON), &h))
	require.Nil(t, h.BaseFee)
	require.Equal(t, uint64(5000), h.GasLimit)
	require.Equal(t, big.NewInt(1), h.Number)

	want := common.HexToHash("0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6")
	if have := h.Hash(); have != want {
		t.Fatalf("block 1 hash mismatch: have %x, want %x", have, want)
	}
	enc, err := json.Marshal(h)
	require.NoError(t, err)
	require.Contains(t, string(enc), want.Hex())
}

func TestCopyHeaderIsDeep(t *testing.T) {
	h := &Header{Number: big.NewInt(7), Difficulty: big.NewInt(1), BaseFee: big.NewInt(9), Extra: []byte{1}}
	cpy := CopyHeader(h)
	cpy.Number.SetUint64(8)
	cpy.BaseFee.SetUint64(10)
	cpy.Extra[0] = 2
	require.Equal(t, uint64(7), h.Number.Uint64())
	require.Equal(t, uint64(9), h.BaseFee.Uint64())
	require.Equal(t, byte(1), h.Extra[0])
}
