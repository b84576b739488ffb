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

package selection

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/coinselect/value"
)

// ErrInsufficientFunds matches every InsufficientFundsError via errors.Is
var ErrInsufficientFunds = errors.New("insufficient funds")

// Shortfall says which part of the target could not be covered
type Shortfall int

const (
	ShortfallAsset Shortfall = iota + 1
	ShortfallLovelace
)

func (s Shortfall) String() string {
	switch s {
	case ShortfallAsset:
		return "asset"
	case ShortfallLovelace:
		return "lovelace"
	default:
		return "unknown"
	}
}

// InsufficientFundsError is returned when the candidate set cannot cover the
// target. Asset is only set for ShortfallAsset
type InsufficientFundsError struct {
	Asset     value.AssetId
	Kind      Shortfall
	Want      uint64
	Available uint64
}

func (e *InsufficientFundsError) Error() string {
	if e.Kind == ShortfallAsset {
		return fmt.Sprintf(
			"%s: inputs exhausted for asset %s (have %d, want %d)",
			ErrInsufficientFunds,
			e.Asset,
			e.Available,
			e.Want,
		)
	}
	return fmt.Sprintf(
		"%s: not enough lovelace in UTxO set (have %d, want %d)",
		ErrInsufficientFunds,
		e.Available,
		e.Want,
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Outcome classifies the error returned by a selection as a short label:
// ok, insufficient_asset, insufficient_lovelace or error
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fundsErr *InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return "insufficient_" + fundsErr.Kind.String()
	}
	return "error"
}
