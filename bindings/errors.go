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

package bindings

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/selection"
	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
)

// ErrorKind classifies boundary failures
type ErrorKind int

const (
	KindError ErrorKind = iota
	KindDeserialize
	KindInsufficientFunds
	KindPrecondition
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindDeserialize:
		return "deserialize"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindPrecondition:
		return "precondition"
	case KindPanic:
		return "panic"
	default:
		return "error"
	}
}

// Error is the only error type returned by Boundary operations
type Error struct {
	Err     error
	Message string
	Stack   string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

// classify maps an internal error to a boundary error, keeping errors that
// were already classified
func classify(err error) *Error {
	var bindErr *Error
	if errors.As(err, &bindErr) {
		return bindErr
	}
	var precondErr *utxo.PreconditionError
	switch {
	case errors.Is(err, selection.ErrInsufficientFunds):
		return newError(KindInsufficientFunds, err)
	case errors.As(err, &precondErr):
		return newError(KindPrecondition, err)
	case errors.Is(err, codec.ErrInvalidOutput),
		errors.Is(err, codec.ErrInvalidTransaction),
		errors.Is(err, codec.ErrInvalidAddress),
		errors.Is(err, value.ErrInvalidPolicyId),
		errors.Is(err, value.ErrAssetNameTooLong),
		errors.Is(err, utxo.ErrInvalidTxId):
		return newError(KindDeserialize, err)
	default:
		return newError(KindError, err)
	}
}
