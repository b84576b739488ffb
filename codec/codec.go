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

// Package codec turns serialized ledger data into the coin selector's value
// model. Two interchangeable implementations exist: one backed by the
// gouroboros ledger types and a lighter one that reads the CBOR wire format
// directly.
package codec

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
)

const (
	NameLedger = "ledger"
	NameRaw    = "raw"

	// Fixed per-output overhead added to the serialized size when computing
	// the minimum lovelace an output must carry
	minUtxoOverheadBytes = 160
)

var (
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrInvalidOutput      = errors.New("invalid transaction output")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidAddress     = errors.New("invalid address")
)

// Codec decodes transaction outputs and transactions
type Codec interface {
	utxo.Decoder
	Name() string
	// ProducedUtxos returns the outputs a transaction creates, in output
	// index order
	ProducedUtxos(txBytes []byte) ([]utxo.UnspentOutput, error)
	// ParseAddress accepts a bech32 or hex address and returns its raw bytes
	ParseAddress(addr string) ([]byte, error)
}

// New returns the codec with the given name. An empty name selects the
// ledger codec
func New(name string) (Codec, error) {
	switch name {
	case "", NameLedger:
		return LedgerCodec{}, nil
	case NameRaw:
		return RawCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
}

// MinAdaRequired returns the minimum lovelace an output of the given
// serialized form must hold
func MinAdaRequired(outputBytes []byte, coinsPerByte uint64) (uint64, error) {
	hi, lo := bits.Mul64(
		uint64(minUtxoOverheadBytes+len(outputBytes)),
		coinsPerByte,
	)
	if hi != 0 {
		return 0, value.ErrOverflow
	}
	return lo, nil
}
