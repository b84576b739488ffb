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

package bindings_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/blinklabs-io/coinselect/selection"
	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddressHex = "0187acac5a3d0b41cd1c5e8c03af5be782f261f21beed70970ddee0873ae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e909133"
	testPolicyHex  = "01000000000000000000000000000000000000000000000000000000"
	testNameHex    = "58" // "X"
)

func testUtxo(t *testing.T, txByte byte, amount value.Value) bindings.Utxo {
	t.Helper()
	addr, err := hex.DecodeString(testAddressHex)
	require.NoError(t, err)
	outputBytes, err := codec.EncodeOutput(addr, amount)
	require.NoError(t, err)
	return bindings.UtxoFromModel(utxo.New(
		utxo.Ref{TxId: utxo.TxId{txByte}},
		outputBytes,
		amount,
	))
}

func testPolicy(t *testing.T) value.PolicyId {
	t.Helper()
	p, err := value.ParsePolicyId(testPolicyHex)
	require.NoError(t, err)
	return p
}

func newBoundary(cfg bindings.Config) *bindings.Boundary {
	if cfg.Codec == nil {
		cfg.Codec = codec.RawCodec{}
	}
	return bindings.New(cfg)
}

func TestCoinSelection(t *testing.T) {
	b := newBoundary(bindings.Config{})
	assert.Equal(t, selection.DefaultCoinsPerByte, b.CoinsPerByte())
	utxos := []bindings.Utxo{
		testUtxo(t, 0xa, value.NewValue(5_000_000)),
		testUtxo(t, 0xb, value.NewValue(2_000_000).WithAsset(testPolicy(t), "X", 10)),
		testUtxo(t, 0xc, value.NewValue(3_000_000)),
	}
	target := bindings.Value{
		Coin:       4_000_000,
		MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 6}},
	}
	res, err := b.CoinSelection(context.Background(), utxos, target)
	require.NoError(t, err)
	assert.Equal(t, []bindings.Utxo{utxos[1], utxos[2]}, res.Selected)
	assert.Equal(t, []bindings.Utxo{utxos[0]}, res.Other)
}

func TestCoinSelectionInsufficientFunds(t *testing.T) {
	b := newBoundary(bindings.Config{})
	utxos := []bindings.Utxo{
		testUtxo(t, 0xb, value.NewValue(2_000_000).WithAsset(testPolicy(t), "X", 10)),
	}
	target := bindings.Value{
		MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 20}},
	}
	_, err := b.CoinSelection(context.Background(), utxos, target)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindInsufficientFunds, bindErr.Kind)
	require.ErrorIs(t, err, selection.ErrInsufficientFunds)
	var fundsErr *selection.InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.Equal(t, selection.ShortfallAsset, fundsErr.Kind)
}

func TestCoinSelectionBadInput(t *testing.T) {
	b := newBoundary(bindings.Config{})
	good := testUtxo(t, 1, value.NewValue(1))
	testDefs := []struct {
		name string
		utxo bindings.Utxo
		kind bindings.ErrorKind
	}{
		{
			name: "bad hash",
			utxo: bindings.Utxo{TransactionHash: "zz", TxOutBytes: good.TxOutBytes},
			kind: bindings.KindDeserialize,
		},
		{
			name: "short hash",
			utxo: bindings.Utxo{TransactionHash: "abcd", TxOutBytes: good.TxOutBytes},
			kind: bindings.KindDeserialize,
		},
		{
			name: "bad output hex",
			utxo: bindings.Utxo{TransactionHash: good.TransactionHash, TxOutBytes: "q"},
			kind: bindings.KindDeserialize,
		},
		{
			name: "undecodable output",
			utxo: bindings.Utxo{TransactionHash: good.TransactionHash, TxOutBytes: "05"},
			kind: bindings.KindPrecondition,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := b.CoinSelection(
				context.Background(),
				[]bindings.Utxo{testDef.utxo},
				bindings.Value{},
			)
			var bindErr *bindings.Error
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, testDef.kind, bindErr.Kind)
		})
	}

	_, err := b.CoinSelection(
		context.Background(),
		nil,
		bindings.Value{MultiAsset: bindings.MultiAsset{"beef": {"": 1}}},
	)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)
}

func TestCoinSelectionJournal(t *testing.T) {
	j, err := journal.New(t.TempDir(), nil)
	require.NoError(t, err)
	defer j.Close()
	b := newBoundary(bindings.Config{Journal: j, CoinsPerByte: 1})
	utxos := []bindings.Utxo{testUtxo(t, 1, value.NewValue(10))}

	_, err = b.CoinSelection(context.Background(), utxos, bindings.Value{Coin: 5})
	require.NoError(t, err)
	_, err = b.CoinSelection(context.Background(), utxos, bindings.Value{Coin: 50})
	require.Error(t, err)

	rows, err := j.List(context.Background(), journal.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "insufficient_lovelace", rows[0].Outcome)
	assert.Equal(t, "ok", rows[1].Outcome)
	assert.Equal(t, uint64(1), rows[1].CoinsPerByte)
}

// panicCodec panics on every call
type panicCodec struct {
	codec.RawCodec
}

func (panicCodec) DecodeOutput([]byte) (value.Value, error) {
	panic("decoder exploded")
}

func (panicCodec) ProducedUtxos([]byte) ([]utxo.UnspentOutput, error) {
	panic(errors.New("tx decoder exploded"))
}

func TestPanicTranslation(t *testing.T) {
	var logBuf bytes.Buffer
	b := newBoundary(bindings.Config{
		Codec: panicCodec{},
		ErrorReporting: bindings.ErrorReporting{
			Logger:       slog.New(slog.NewJSONHandler(&logBuf, nil)),
			LogPanics:    true,
			IncludeStack: true,
		},
	})
	_, err := b.CoinSelection(
		context.Background(),
		[]bindings.Utxo{testUtxo(t, 1, value.NewValue(1))},
		bindings.Value{},
	)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindPanic, bindErr.Kind)
	assert.Equal(t, "decoder exploded", bindErr.Message)
	assert.NotEmpty(t, bindErr.Stack)
	assert.Contains(t, logBuf.String(), "recovered panic")

	_, err = b.TransactionUtxos([]byte{0x80})
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindPanic, bindErr.Kind)
	assert.Equal(t, "tx decoder exploded", bindErr.Message)
}

func TestPanicQuiet(t *testing.T) {
	var logBuf bytes.Buffer
	b := newBoundary(bindings.Config{
		Codec: panicCodec{},
		ErrorReporting: bindings.ErrorReporting{
			Logger: slog.New(slog.NewJSONHandler(&logBuf, nil)),
		},
	})
	_, err := b.TransactionUtxos(nil)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindPanic, bindErr.Kind)
	assert.Empty(t, bindErr.Stack)
	assert.Empty(t, logBuf.String())
}

func TestTransactionUtxos(t *testing.T) {
	b := newBoundary(bindings.Config{})
	_, err := b.TransactionUtxos([]byte{0x01})
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)
	require.ErrorIs(t, err, codec.ErrInvalidTransaction)
}

func TestValueOps(t *testing.T) {
	b := newBoundary(bindings.Config{})
	a := bindings.Value{
		Coin:       10,
		MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 5}},
	}
	c := bindings.Value{Coin: 3}

	sum, err := b.ValueCheckedAdd(a, c)
	require.NoError(t, err)
	assert.Equal(
		t,
		bindings.Value{
			Coin:       13,
			MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 5}},
		},
		sum,
	)

	diff, err := b.ValueCheckedSub(a, a)
	require.NoError(t, err)
	assert.Equal(t, bindings.Value{}, diff)

	_, err = b.ValueCheckedSub(c, a)
	require.ErrorIs(t, err, value.ErrUnderflow)

	_, err = b.ValueCheckedAdd(bindings.Value{Coin: ^uint64(0)}, c)
	require.ErrorIs(t, err, value.ErrOverflow)

	clamped, err := b.ValueClampedSub(c, a)
	require.NoError(t, err)
	assert.Equal(t, bindings.Value{}, clamped)

	cmp, err := b.ValueCompare(a, c)
	require.NoError(t, err)
	assert.Equal(t, &bindings.CompareResult{Comparable: true, Ordering: 1}, cmp)

	cmp, err = b.ValueCompare(
		bindings.Value{Coin: 100},
		bindings.Value{
			Coin:       1,
			MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 1}},
		},
	)
	require.NoError(t, err)
	assert.False(t, cmp.Comparable)
}

func TestMinAdaRequired(t *testing.T) {
	b := newBoundary(bindings.Config{CoinsPerByte: 10})
	ret, err := b.MinAdaRequired("00112233", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64((160+4)*10), ret)

	ret, err = b.MinAdaRequired("00112233", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(164), ret)

	_, err = b.MinAdaRequired("xyz", 0)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)

	// Map header and two keys, 59 byte address field, 5 byte coin
	ret, err = b.MinAdaRequiredForValue(
		testAddressHex,
		bindings.Value{Coin: 2_000_000},
		1,
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(160+67), ret)

	_, err = b.MinAdaRequiredForValue("nope", bindings.Value{}, 1)
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)
}

func TestAssetFingerprints(t *testing.T) {
	b := newBoundary(bindings.Config{})
	ret, err := b.AssetFingerprints(bindings.Value{
		MultiAsset: bindings.MultiAsset{testPolicyHex: {testNameHex: 1}},
	})
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]string{
			testPolicyHex + "." + testNameHex: "asset1w38mea0a7d4lzfnulgmvyljz04f6m7xuk7w9pn",
		},
		ret,
	)
}

func TestValueConversionRoundTrip(t *testing.T) {
	v := value.NewValue(7).WithAsset(testPolicy(t), "X", 3)
	dto := bindings.ValueFromModel(v)
	back, err := bindings.ValueToModel(dto)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
}

func TestValueToModelCaseDuplicateKeys(t *testing.T) {
	lowerPolicy := strings.Repeat("ab", 28)
	upperPolicy := strings.ToUpper(lowerPolicy)
	testDefs := []struct {
		name string
		dto  bindings.Value
	}{
		{
			name: "policy",
			dto: bindings.Value{MultiAsset: bindings.MultiAsset{
				lowerPolicy: {"01": 5},
				upperPolicy: {"01": 7},
			}},
		},
		{
			name: "asset name",
			dto: bindings.Value{MultiAsset: bindings.MultiAsset{
				lowerPolicy: {"0a": 5, "0A": 7},
			}},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			for range 50 {
				_, err := bindings.ValueToModel(testDef.dto)
				var bindErr *bindings.Error
				require.ErrorAs(t, err, &bindErr)
				assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)
				assert.Contains(t, err.Error(), "duplicate asset")
			}
		})
	}

	b := newBoundary(bindings.Config{})
	_, err := b.CoinSelection(
		context.Background(),
		[]bindings.Utxo{testUtxo(t, 1, value.NewValue(10))},
		testDefs[0].dto,
	)
	var bindErr *bindings.Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, bindings.KindDeserialize, bindErr.Kind)
}

func TestValueToModelManyAssets(t *testing.T) {
	const count = 2000
	names := make(map[string]uint64, count)
	for i := range count {
		names[fmt.Sprintf("%04x", i)] = uint64(i)
	}
	v, err := bindings.ValueToModel(bindings.Value{
		Coin:       1,
		MultiAsset: bindings.MultiAsset{testPolicyHex: names},
	})
	require.NoError(t, err)
	// Asset 0000 has a zero quantity and is dropped
	assert.Len(t, v.AssetIds(), count-1)
	assert.Equal(t, uint64(count-1), v.Quantity(testPolicy(t), "\x07\xcf"))
	assert.Equal(t, uint64(0), v.Quantity(testPolicy(t), "\x00\x00"))
}
