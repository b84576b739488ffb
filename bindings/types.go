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

// Package bindings is the boundary between host applications and the coin
// selection engine. Host data arrives as plain DTOs with hex-encoded byte
// fields and is converted explicitly into the internal model, and every
// operation reports failures, including panics, as a typed *Error.
package bindings

import (
	"encoding/hex"
	"fmt"
	"maps"
	"slices"

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
)

// Utxo is an unspent output as exchanged with the host
type Utxo struct {
	TransactionHash  string `json:"transaction_hash"`
	TxOutBytes       string `json:"tx_out_bytes"`
	TransactionIndex uint32 `json:"transaction_index"`
}

// MultiAsset maps hex policy ID to hex asset name to quantity
type MultiAsset map[string]map[string]uint64

// Value is a ledger amount as exchanged with the host
type Value struct {
	MultiAsset MultiAsset `json:"multiasset,omitempty"`
	Coin       uint64     `json:"coin"`
}

type CoinSelectionResult struct {
	Selected []Utxo `json:"selected"`
	Other    []Utxo `json:"other"`
}

// CompareResult is the partial ordering of two values. Ordering is only
// meaningful when Comparable is set
type CompareResult struct {
	Comparable bool `json:"comparable"`
	Ordering   int  `json:"ordering"`
}

// UtxoToModel decodes the output body with decoder
func UtxoToModel(u Utxo, decoder utxo.Decoder) (utxo.UnspentOutput, error) {
	txId, err := utxo.ParseTxId(u.TransactionHash)
	if err != nil {
		return utxo.UnspentOutput{}, newError(KindDeserialize, err)
	}
	outputBytes, err := hex.DecodeString(u.TxOutBytes)
	if err != nil {
		return utxo.UnspentOutput{}, newError(
			KindDeserialize,
			fmt.Errorf("tx_out_bytes: %w", err),
		)
	}
	ret, err := utxo.Decode(
		utxo.Ref{TxId: txId, Index: u.TransactionIndex},
		outputBytes,
		decoder,
	)
	if err != nil {
		return utxo.UnspentOutput{}, newError(KindPrecondition, err)
	}
	return ret, nil
}

func UtxoFromModel(u utxo.UnspentOutput) Utxo {
	return Utxo{
		TransactionHash:  u.Ref().TxId.String(),
		TransactionIndex: u.Ref().Index,
		TxOutBytes:       hex.EncodeToString(u.OutputBytes()),
	}
}

func utxosFromModel(utxos []utxo.UnspentOutput) []Utxo {
	ret := make([]Utxo, 0, len(utxos))
	for _, u := range utxos {
		ret = append(ret, UtxoFromModel(u))
	}
	return ret
}

// ValueToModel converts a host value. Hex keys are case-insensitive, so two
// keys that decode to the same policy or asset are rejected rather than
// merged in map order
func ValueToModel(v Value) (value.Value, error) {
	ret := value.Value{Coin: v.Coin}
	for _, policyHex := range slices.Sorted(maps.Keys(v.MultiAsset)) {
		policy, err := value.ParsePolicyId(policyHex)
		if err != nil {
			return value.Value{}, newError(KindDeserialize, err)
		}
		assets := v.MultiAsset[policyHex]
		tmpAssets, ok := ret.MultiAsset[policy]
		if !ok {
			tmpAssets = make(value.Assets, len(assets))
		}
		for _, nameHex := range slices.Sorted(maps.Keys(assets)) {
			name, err := value.ParseAssetName(nameHex)
			if err != nil {
				return value.Value{}, newError(KindDeserialize, err)
			}
			if _, dup := tmpAssets[name]; dup {
				return value.Value{}, newError(
					KindDeserialize,
					fmt.Errorf(
						"duplicate asset %s",
						value.AssetId{Policy: policy, Name: name},
					),
				)
			}
			tmpAssets[name] = assets[nameHex]
		}
		if ret.MultiAsset == nil {
			ret.MultiAsset = make(value.MultiAsset, len(v.MultiAsset))
		}
		ret.MultiAsset[policy] = tmpAssets
	}
	// Clone drops zero quantities and empty policies
	return ret.Clone(), nil
}

func ValueFromModel(v value.Value) Value {
	ret := Value{Coin: v.Coin}
	for _, id := range v.AssetIds() {
		if ret.MultiAsset == nil {
			ret.MultiAsset = make(MultiAsset)
		}
		policy := id.Policy.String()
		if _, ok := ret.MultiAsset[policy]; !ok {
			ret.MultiAsset[policy] = make(map[string]uint64)
		}
		ret.MultiAsset[policy][id.Name.String()] = v.Quantity(id.Policy, id.Name)
	}
	return ret
}
