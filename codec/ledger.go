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

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
	gledger "github.com/blinklabs-io/gouroboros/ledger"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// LedgerCodec decodes with the gouroboros ledger types, which understand
// every era's output and transaction formats
type LedgerCodec struct{}

func (LedgerCodec) Name() string {
	return NameLedger
}

func (LedgerCodec) DecodeOutput(outputBytes []byte) (value.Value, error) {
	out, err := gledger.NewTransactionOutputFromCbor(outputBytes)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return ledgerOutputValue(out)
}

func (LedgerCodec) ProducedUtxos(txBytes []byte) ([]utxo.UnspentOutput, error) {
	txType, err := gledger.DetermineTransactionType(txBytes)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: determine tx type: %w",
			ErrInvalidTransaction,
			err,
		)
	}
	tx, err := gledger.NewTransactionFromCbor(txType, txBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tx: %w", ErrInvalidTransaction, err)
	}
	produced := tx.Produced()
	ret := make([]utxo.UnspentOutput, 0, len(produced))
	for _, u := range produced {
		txId, err := utxo.NewTxId(u.Id.Id().Bytes())
		if err != nil {
			return nil, err
		}
		amount, err := ledgerOutputValue(u.Output)
		if err != nil {
			return nil, err
		}
		ret = append(
			ret,
			utxo.New(
				utxo.Ref{TxId: txId, Index: u.Id.Index()},
				u.Output.Cbor(),
				amount,
			),
		)
	}
	return ret, nil
}

func (LedgerCodec) ParseAddress(addr string) ([]byte, error) {
	var ret lcommon.Address
	if isHex(addr) {
		addrBytes, _ := hex.DecodeString(addr)
		if len(addrBytes) == 0 {
			return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
		}
		var err error
		ret, err = lcommon.NewAddressFromBytes(addrBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
	} else {
		var err error
		ret, err = lcommon.NewAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
	}
	addrBytes, err := ret.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addrBytes, nil
}

func ledgerOutputValue(out gledger.TransactionOutput) (value.Value, error) {
	var ret value.Value
	if amount := out.Amount(); amount != nil {
		if !amount.IsUint64() {
			return value.Value{}, fmt.Errorf(
				"%w: coin out of range: %s",
				ErrInvalidOutput,
				amount.String(),
			)
		}
		ret.Coin = amount.Uint64()
	}
	multiAsset := out.Assets()
	if multiAsset == nil {
		return ret, nil
	}
	ret.MultiAsset = make(value.MultiAsset)
	for _, policyId := range multiAsset.Policies() {
		policy, err := value.NewPolicyId(policyId.Bytes())
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
		}
		assets := make(value.Assets)
		for _, assetName := range multiAsset.Assets(policyId) {
			name, err := value.NewAssetName(assetName)
			if err != nil {
				return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
			}
			assets[name] = multiAsset.Asset(policyId, assetName).Uint64()
		}
		ret.MultiAsset[policy] = assets
	}
	return ret.Clone(), nil
}

// AssetFingerprint returns the CIP-14 fingerprint of an asset
func AssetFingerprint(id value.AssetId) string {
	return lcommon.NewAssetFingerprint(
		id.Policy.Bytes(),
		id.Name.Bytes(),
	).String()
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
