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

package utxo

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/coinselect/value"
)

const TxIdSize = 32

var ErrInvalidTxId = errors.New("invalid transaction ID")

// TxId is the 32-byte hash of a transaction body
type TxId [TxIdSize]byte

func NewTxId(b []byte) (TxId, error) {
	var id TxId
	if len(b) != TxIdSize {
		return id, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidTxId,
			TxIdSize,
			len(b),
		)
	}
	copy(id[:], b)
	return id, nil
}

func ParseTxId(s string) (TxId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return TxId{}, fmt.Errorf("%w: %w", ErrInvalidTxId, err)
	}
	return NewTxId(b)
}

func (id TxId) Bytes() []byte {
	return bytes.Clone(id[:])
}

func (id TxId) String() string {
	return hex.EncodeToString(id[:])
}

// Ref is the identity of an unspent output
type Ref struct {
	TxId  TxId
	Index uint32
}

// Compare orders refs by transaction ID bytes, then output index
func (r Ref) Compare(other Ref) int {
	if c := bytes.Compare(r.TxId[:], other.TxId[:]); c != 0 {
		return c
	}
	return cmp.Compare(r.Index, other.Index)
}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.TxId.String(), r.Index)
}

// ParseRef parses the txid#index form produced by Ref.String
func ParseRef(s string) (Ref, error) {
	txIdHex, idxStr, ok := strings.Cut(s, "#")
	if !ok {
		return Ref{}, fmt.Errorf("invalid UTxO ref: %s", s)
	}
	txId, err := ParseTxId(txIdHex)
	if err != nil {
		return Ref{}, err
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid UTxO ref index: %w", err)
	}
	return Ref{TxId: txId, Index: uint32(idx)}, nil
}

// Decoder turns a serialized transaction output into its value
type Decoder interface {
	DecodeOutput(outputBytes []byte) (value.Value, error)
}

// PreconditionError reports a candidate that cannot be used at all, such as
// one whose output body does not decode
type PreconditionError struct {
	Err error
	Ref Ref
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated for UTxO %s: %s", e.Ref, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// UnspentOutput is an immutable view of a spendable transaction output.
// Equality is defined by Ref alone
type UnspentOutput struct {
	amount      value.Value
	outputBytes []byte
	ref         Ref
}

// New builds an UnspentOutput from an already decoded amount
func New(ref Ref, outputBytes []byte, amount value.Value) UnspentOutput {
	return UnspentOutput{
		ref:         ref,
		outputBytes: bytes.Clone(outputBytes),
		amount:      amount.Clone(),
	}
}

// Decode builds an UnspentOutput, decoding the amount from the output body
func Decode(
	ref Ref,
	outputBytes []byte,
	decoder Decoder,
) (UnspentOutput, error) {
	if decoder == nil {
		return UnspentOutput{}, &PreconditionError{
			Ref: ref,
			Err: errors.New("no output decoder"),
		}
	}
	amount, err := decoder.DecodeOutput(outputBytes)
	if err != nil {
		return UnspentOutput{}, &PreconditionError{Ref: ref, Err: err}
	}
	return New(ref, outputBytes, amount), nil
}

func (u UnspentOutput) Ref() Ref {
	return u.ref
}

// OutputBytes returns a copy of the serialized output body
func (u UnspentOutput) OutputBytes() []byte {
	return bytes.Clone(u.outputBytes)
}

// OutputSize is the length of the serialized output body
func (u UnspentOutput) OutputSize() int {
	return len(u.outputBytes)
}

// Amount returns a copy of the output value
func (u UnspentOutput) Amount() value.Value {
	return u.amount.Clone()
}

func (u UnspentOutput) Coin() uint64 {
	return u.amount.Coin
}

// Quantity returns the held quantity of an asset without copying the bundle
func (u UnspentOutput) Quantity(
	policy value.PolicyId,
	name value.AssetName,
) uint64 {
	return u.amount.Quantity(policy, name)
}

func (u UnspentOutput) String() string {
	return u.ref.String()
}
