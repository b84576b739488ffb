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

package api

import (
	"errors"
	"net/http"

	"github.com/blinklabs-io/coinselect/bindings"
)

// Error is the JSON error envelope
type Error struct {
	Details     map[string]any `json:"details,omitempty"`
	Message     string         `json:"message"`
	Description string         `json:"description,omitempty"`
	Code        int32          `json:"code"`
	Retriable   bool           `json:"retriable"`
}

var (
	ErrInvalidRequest = &Error{
		Code:        1,
		Message:     "invalid request",
		Description: "The request was invalid or malformed.",
	}
	ErrDeserialize = &Error{
		Code:    2,
		Message: "deserialization failed",
		Description: "A hex or CBOR field in the request could " +
			"not be decoded.",
	}
	ErrInsufficientFunds = &Error{
		Code:    3,
		Message: "insufficient funds",
		Description: "The candidate UTxOs cannot cover the " +
			"requested value.",
	}
	ErrPrecondition = &Error{
		Code:        4,
		Message:     "precondition violated",
		Description: "A candidate UTxO cannot be used.",
	}
	ErrInternal = &Error{
		Code:        5,
		Message:     "internal error",
		Description: "An internal server error occurred.",
		Retriable:   true,
	}
	ErrNotFound = &Error{
		Code:        6,
		Message:     "not found",
		Description: "The requested item could not be found.",
	}
	ErrUnavailable = &Error{
		Code:    7,
		Message: "service unavailable",
		Description: "The requested feature is not enabled on " +
			"this server.",
	}
)

// wrapErr creates a new Error with additional details.
func wrapErr(base *Error, detail error) *Error {
	if detail == nil {
		return base
	}
	return &Error{
		Code:        base.Code,
		Message:     base.Message,
		Description: base.Description,
		Retriable:   base.Retriable,
		Details: map[string]any{
			"error": detail.Error(),
		},
	}
}

// fromBoundaryErr maps a boundary failure to its API error
func fromBoundaryErr(err error) *Error {
	var bindErr *bindings.Error
	if !errors.As(err, &bindErr) {
		return wrapErr(ErrInternal, err)
	}
	base := ErrInternal
	switch bindErr.Kind {
	case bindings.KindDeserialize:
		base = ErrDeserialize
	case bindings.KindInsufficientFunds:
		base = ErrInsufficientFunds
	case bindings.KindPrecondition:
		base = ErrPrecondition
	case bindings.KindError:
		base = ErrInvalidRequest
	}
	ret := wrapErr(base, err)
	ret.Details["kind"] = bindErr.Kind.String()
	return ret
}

func errorStatus(apiErr *Error) int {
	switch apiErr.Code {
	case ErrInvalidRequest.Code,
		ErrDeserialize.Code,
		ErrPrecondition.Code:
		return http.StatusBadRequest
	case ErrInsufficientFunds.Code:
		return http.StatusUnprocessableEntity
	case ErrNotFound.Code:
		return http.StatusNotFound
	case ErrUnavailable.Code:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
