// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// CBOR major types
const (
	cborTypeUint  = 0
	cborTypeArray = 4
	cborTypeMap   = 5
)

// Transaction body map keys
const (
	txBodyKeyOutputs          = 1
	txBodyKeyCollateralReturn = 16
)

// Output map key of the amount (Babbage and later)
const outputKeyAmount = 1

// RawCodec reads the Shelley-and-later output and transaction wire formats
// without building full ledger objects. Byron transactions are not supported
type RawCodec struct{}

// outputAmount is the [coin, multiasset] form of an output amount
type outputAmount struct {
	_      struct{} `cbor:",toarray"`
	Coin   uint64
	Assets map[cbor.ByteString]map[cbor.ByteString]uint64
}

func (RawCodec) Name() string {
	return NameRaw
}

func (RawCodec) DecodeOutput(outputBytes []byte) (value.Value, error) {
	if len(outputBytes) == 0 {
		return value.Value{}, fmt.Errorf("%w: empty", ErrInvalidOutput)
	}
	var amountRaw cbor.RawMessage
	switch outputBytes[0] >> 5 {
	case cborTypeArray:
		// Legacy form: [address, amount, ?datum_hash]
		var fields []cbor.RawMessage
		if err := cbor.Unmarshal(outputBytes, &fields); err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		if len(fields) < 2 {
			return value.Value{}, fmt.Errorf(
				"%w: expected at least 2 fields, got %d",
				ErrInvalidOutput,
				len(fields),
			)
		}
		amountRaw = fields[1]
	case cborTypeMap:
		var fields map[uint64]cbor.RawMessage
		if err := cbor.Unmarshal(outputBytes, &fields); err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		var ok bool
		if amountRaw, ok = fields[outputKeyAmount]; !ok {
			return value.Value{}, fmt.Errorf("%w: missing amount", ErrInvalidOutput)
		}
	default:
		return value.Value{}, fmt.Errorf(
			"%w: unexpected CBOR major type %d",
			ErrInvalidOutput,
			outputBytes[0]>>5,
		)
	}
	return decodeAmount(amountRaw)
}

func decodeAmount(data []byte) (value.Value, error) {
	if len(data) > 0 && data[0]>>5 == cborTypeUint {
		var coin uint64
		if err := cbor.Unmarshal(data, &coin); err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		return value.NewValue(coin), nil
	}
	var amount outputAmount
	if err := cbor.Unmarshal(data, &amount); err != nil {
		return value.Value{}, fmt.Errorf("%w: amount: %w", ErrInvalidOutput, err)
	}
	ret := value.Value{
		Coin:       amount.Coin,
		MultiAsset: make(value.MultiAsset, len(amount.Assets)),
	}
	for policyBytes, assets := range amount.Assets {
		policy, err := value.NewPolicyId([]byte(policyBytes))
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		tmpAssets := make(value.Assets, len(assets))
		for nameBytes, qty := range assets {
			name, err := value.NewAssetName([]byte(nameBytes))
			if err != nil {
				return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
			}
			tmpAssets[name] = qty
		}
		ret.MultiAsset[policy] = tmpAssets
	}
	return ret.Clone(), nil
}

// ProducedUtxos reads the transaction body directly. The transaction ID is the
// blake2b-256 hash of the body exactly as serialized. A transaction marked
// invalid produces only its collateral return output
func (c RawCodec) ProducedUtxos(txBytes []byte) ([]utxo.UnspentOutput, error) {
	var tx []cbor.RawMessage
	if err := cbor.Unmarshal(txBytes, &tx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if len(tx) < 3 {
		return nil, fmt.Errorf(
			"%w: expected at least 3 elements, got %d",
			ErrInvalidTransaction,
			len(tx),
		)
	}
	body := tx[0]
	var bodyFields map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(body, &bodyFields); err != nil {
		return nil, fmt.Errorf("%w: body: %w", ErrInvalidTransaction, err)
	}
	txId := utxo.TxId(blake2b.Sum256(body))
	var outputs []cbor.RawMessage
	if outputsRaw, ok := bodyFields[txBodyKeyOutputs]; ok {
		if err := cbor.Unmarshal(outputsRaw, &outputs); err != nil {
			return nil, fmt.Errorf("%w: outputs: %w", ErrInvalidTransaction, err)
		}
	}
	if len(outputs) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: too many outputs", ErrInvalidTransaction)
	}
	isValid := true
	if len(tx) == 4 {
		if err := cbor.Unmarshal(tx[2], &isValid); err != nil {
			return nil, fmt.Errorf("%w: is_valid: %w", ErrInvalidTransaction, err)
		}
	}
	if !isValid {
		collateralReturn, ok := bodyFields[txBodyKeyCollateralReturn]
		if !ok {
			return []utxo.UnspentOutput{}, nil
		}
		u, err := c.producedUtxo(txId, len(outputs), collateralReturn)
		if err != nil {
			return nil, err
		}
		return []utxo.UnspentOutput{u}, nil
	}
	ret := make([]utxo.UnspentOutput, 0, len(outputs))
	for idx, output := range outputs {
		u, err := c.producedUtxo(txId, idx, output)
		if err != nil {
			return nil, err
		}
		ret = append(ret, u)
	}
	return ret, nil
}

func (c RawCodec) producedUtxo(
	txId utxo.TxId,
	idx int,
	output []byte,
) (utxo.UnspentOutput, error) {
	ref := utxo.Ref{TxId: txId, Index: uint32(idx)} //nolint:gosec
	return utxo.Decode(ref, output, c)
}

// ParseAddress decodes bech32 addresses without enforcing the 90 character
// limit, since Shelley base addresses exceed it
func (RawCodec) ParseAddress(addr string) ([]byte, error) {
	if isHex(addr) {
		ret, _ := hex.DecodeString(addr)
		if len(ret) == 0 {
			return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
		}
		return ret, nil
	}
	_, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	ret, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	return ret, nil
}
