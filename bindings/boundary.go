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
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/blinklabs-io/coinselect/selection"
	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
)

// ErrorReporting controls what happens when an operation panics. The panic is
// always converted to an *Error of kind KindPanic
type ErrorReporting struct {
	Logger       *slog.Logger
	LogPanics    bool
	IncludeStack bool
}

type Config struct {
	Codec    codec.Codec
	Selector *selection.Selector
	// Journal is optional. When set, every selection is recorded
	Journal *journal.Journal
	// CoinsPerByte overrides the selector's value when non-zero
	CoinsPerByte   uint64
	ErrorReporting ErrorReporting
}

type Boundary struct {
	config Config
	logger *slog.Logger
}

func New(cfg Config) *Boundary {
	if cfg.Codec == nil {
		cfg.Codec = codec.LedgerCodec{}
	}
	if cfg.Selector == nil {
		cfg.Selector = selection.New()
	}
	if cfg.CoinsPerByte == 0 {
		cfg.CoinsPerByte = cfg.Selector.CoinsPerByte()
	}
	logger := cfg.ErrorReporting.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Boundary{
		config: cfg,
		logger: logger.With("component", "bindings"),
	}
}

func (b *Boundary) Codec() codec.Codec {
	return b.config.Codec
}

func (b *Boundary) CoinsPerByte() uint64 {
	return b.config.CoinsPerByte
}

// guard runs fn, converting a returned error or a panic into an *Error
func (b *Boundary) guard(op string, fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		panicErr := &Error{
			Kind:    KindPanic,
			Message: fmt.Sprintf("%v", r),
		}
		if b.config.ErrorReporting.IncludeStack {
			panicErr.Stack = string(debug.Stack())
		}
		if b.config.ErrorReporting.LogPanics {
			b.logger.Error(
				"recovered panic",
				"operation", op,
				"panic", panicErr.Message,
				"stack", panicErr.Stack,
			)
		}
		err = panicErr
	}()
	if err := fn(); err != nil {
		return classify(err)
	}
	return nil
}

// CoinSelection decodes the host UTxOs and selects inputs covering target
func (b *Boundary) CoinSelection(
	ctx context.Context,
	utxos []Utxo,
	target Value,
) (*CoinSelectionResult, error) {
	var candidates []utxo.UnspentOutput
	err := b.guard("coin_selection", func() error {
		candidates = make([]utxo.UnspentOutput, 0, len(utxos))
		for _, u := range utxos {
			candidate, err := UtxoToModel(u, b.config.Codec)
			if err != nil {
				return err
			}
			candidates = append(candidates, candidate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.SelectCandidates(ctx, candidates, target)
}

// SelectCandidates selects from already decoded candidates
func (b *Boundary) SelectCandidates(
	ctx context.Context,
	candidates []utxo.UnspentOutput,
	target Value,
) (*CoinSelectionResult, error) {
	var ret *CoinSelectionResult
	err := b.guard("coin_selection", func() error {
		targetValue, err := ValueToModel(target)
		if err != nil {
			return err
		}
		res, selErr := b.config.Selector.SelectWithCoinsPerByte(
			ctx,
			candidates,
			targetValue,
			b.config.CoinsPerByte,
		)
		b.record(ctx, journal.Entry{
			Target:       targetValue,
			CoinsPerByte: b.config.CoinsPerByte,
			Candidates:   len(candidates),
			Result:       res,
			Err:          selErr,
		})
		if selErr != nil {
			return selErr
		}
		ret = &CoinSelectionResult{
			Selected: utxosFromModel(res.Selected),
			Other:    utxosFromModel(res.Remaining),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *Boundary) record(ctx context.Context, entry journal.Entry) {
	if b.config.Journal == nil {
		return
	}
	if _, err := b.config.Journal.Record(ctx, entry); err != nil {
		b.logger.Warn("failed to record selection", "error", err)
	}
}

// TransactionUtxos returns the outputs an unsubmitted transaction will create
func (b *Boundary) TransactionUtxos(txBytes []byte) ([]Utxo, error) {
	var ret []Utxo
	err := b.guard("transaction_utxos", func() error {
		produced, err := b.config.Codec.ProducedUtxos(txBytes)
		if err != nil {
			return err
		}
		ret = utxosFromModel(produced)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (b *Boundary) valueOp(
	op string,
	lhs Value,
	rhs Value,
	fn func(a, b value.Value) (value.Value, error),
) (Value, error) {
	var ret Value
	err := b.guard(op, func() error {
		a, err := ValueToModel(lhs)
		if err != nil {
			return err
		}
		c, err := ValueToModel(rhs)
		if err != nil {
			return err
		}
		res, err := fn(a, c)
		if err != nil {
			return err
		}
		ret = ValueFromModel(res)
		return nil
	})
	if err != nil {
		return Value{}, err
	}
	return ret, nil
}

func (b *Boundary) ValueCheckedAdd(lhs, rhs Value) (Value, error) {
	return b.valueOp("value_checked_add", lhs, rhs, value.CheckedAdd)
}

func (b *Boundary) ValueCheckedSub(lhs, rhs Value) (Value, error) {
	return b.valueOp("value_checked_sub", lhs, rhs, value.CheckedSub)
}

func (b *Boundary) ValueClampedSub(lhs, rhs Value) (Value, error) {
	return b.valueOp(
		"value_clamped_sub",
		lhs,
		rhs,
		func(a, c value.Value) (value.Value, error) {
			return value.ClampedSub(a, c), nil
		},
	)
}

func (b *Boundary) ValueCompare(lhs, rhs Value) (*CompareResult, error) {
	var ret *CompareResult
	err := b.guard("value_compare", func() error {
		a, err := ValueToModel(lhs)
		if err != nil {
			return err
		}
		c, err := ValueToModel(rhs)
		if err != nil {
			return err
		}
		ordering, ok := value.Compare(a, c)
		ret = &CompareResult{Comparable: ok, Ordering: ordering}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// MinAdaRequired returns the minimum lovelace for a serialized output. When
// coinsPerByte is zero the boundary's configured value is used
func (b *Boundary) MinAdaRequired(
	outputHex string,
	coinsPerByte uint64,
) (uint64, error) {
	var ret uint64
	err := b.guard("min_ada_required", func() error {
		outputBytes, err := hex.DecodeString(outputHex)
		if err != nil {
			return newError(KindDeserialize, err)
		}
		ret, err = codec.MinAdaRequired(outputBytes, b.coinsPerByte(coinsPerByte))
		return err
	})
	if err != nil {
		return 0, err
	}
	return ret, nil
}

// MinAdaRequiredForValue serializes an output paying amount to address and
// returns its minimum lovelace
func (b *Boundary) MinAdaRequiredForValue(
	address string,
	amount Value,
	coinsPerByte uint64,
) (uint64, error) {
	var ret uint64
	err := b.guard("min_ada_required", func() error {
		addrBytes, err := b.config.Codec.ParseAddress(address)
		if err != nil {
			return err
		}
		v, err := ValueToModel(amount)
		if err != nil {
			return err
		}
		outputBytes, err := codec.EncodeOutput(addrBytes, v)
		if err != nil {
			return err
		}
		ret, err = codec.MinAdaRequired(outputBytes, b.coinsPerByte(coinsPerByte))
		return err
	})
	if err != nil {
		return 0, err
	}
	return ret, nil
}

func (b *Boundary) coinsPerByte(override uint64) uint64 {
	if override != 0 {
		return override
	}
	return b.config.CoinsPerByte
}

// AssetFingerprints returns the CIP-14 fingerprint of every asset in v,
// keyed by policy ID and asset name in hex joined with a dot
func (b *Boundary) AssetFingerprints(v Value) (map[string]string, error) {
	var ret map[string]string
	err := b.guard("asset_fingerprints", func() error {
		amount, err := ValueToModel(v)
		if err != nil {
			return err
		}
		ret = make(map[string]string)
		for _, id := range amount.AssetIds() {
			ret[id.String()] = codec.AssetFingerprint(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
