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

// Package value models ledger amounts: a lovelace quantity plus a
// multi-asset bundle keyed by policy ID and asset name.
package value

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"math/bits"
	"slices"
	"strings"
)

const (
	PolicyIdSize     = 28
	MaxAssetNameSize = 32
)

var (
	ErrOverflow         = errors.New("value overflow")
	ErrUnderflow        = errors.New("value underflow")
	ErrAssetNameTooLong = errors.New("asset name too long")
	ErrInvalidPolicyId  = errors.New("invalid policy ID")
)

// PolicyId is the hash of the minting policy script for a class of tokens
type PolicyId [PolicyIdSize]byte

func NewPolicyId(b []byte) (PolicyId, error) {
	var p PolicyId
	if len(b) != PolicyIdSize {
		return p, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidPolicyId,
			PolicyIdSize,
			len(b),
		)
	}
	copy(p[:], b)
	return p, nil
}

func ParsePolicyId(s string) (PolicyId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PolicyId{}, fmt.Errorf("%w: %w", ErrInvalidPolicyId, err)
	}
	return NewPolicyId(b)
}

func (p PolicyId) Bytes() []byte {
	return bytes.Clone(p[:])
}

func (p PolicyId) String() string {
	return hex.EncodeToString(p[:])
}

// AssetName is the raw (not hex-encoded) label of a token under a policy.
// It is a string type so it can be used as a map key
type AssetName string

func NewAssetName(b []byte) (AssetName, error) {
	if len(b) > MaxAssetNameSize {
		return "", fmt.Errorf(
			"%w: %d bytes (max %d)",
			ErrAssetNameTooLong,
			len(b),
			MaxAssetNameSize,
		)
	}
	return AssetName(b), nil
}

func ParseAssetName(s string) (AssetName, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid asset name hex: %w", err)
	}
	return NewAssetName(b)
}

func (n AssetName) Bytes() []byte {
	return []byte(n)
}

func (n AssetName) String() string {
	return hex.EncodeToString([]byte(n))
}

// AssetId identifies a single token type
type AssetId struct {
	Policy PolicyId
	Name   AssetName
}

func (a AssetId) String() string {
	return a.Policy.String() + "." + a.Name.String()
}

// Compare orders asset IDs by policy bytes, then name bytes
func (a AssetId) Compare(b AssetId) int {
	if c := bytes.Compare(a.Policy[:], b.Policy[:]); c != 0 {
		return c
	}
	return strings.Compare(string(a.Name), string(b.Name))
}

// Assets maps asset names to quantities under a single policy
type Assets map[AssetName]uint64

// MultiAsset maps policy IDs to the assets held under them
type MultiAsset map[PolicyId]Assets

// Value is an amount of lovelace plus native assets
type Value struct {
	MultiAsset MultiAsset
	Coin       uint64
}

// NewValue returns a pure-lovelace value
func NewValue(coin uint64) Value {
	return Value{Coin: coin}
}

// WithAsset returns a copy of v with the quantity of the given asset set.
// A zero quantity removes the asset
func (v Value) WithAsset(
	policy PolicyId,
	name AssetName,
	quantity uint64,
) Value {
	ret := v.Clone()
	ret.set(policy, name, quantity)
	return ret
}

func (v *Value) set(policy PolicyId, name AssetName, quantity uint64) {
	if quantity == 0 {
		if assets, ok := v.MultiAsset[policy]; ok {
			delete(assets, name)
			if len(assets) == 0 {
				delete(v.MultiAsset, policy)
			}
		}
		return
	}
	if v.MultiAsset == nil {
		v.MultiAsset = make(MultiAsset)
	}
	assets, ok := v.MultiAsset[policy]
	if !ok {
		assets = make(Assets)
		v.MultiAsset[policy] = assets
	}
	assets[name] = quantity
}

// Quantity returns the held quantity of an asset, zero if absent
func (v Value) Quantity(policy PolicyId, name AssetName) uint64 {
	return v.MultiAsset[policy][name]
}

// AssetIds returns the IDs of all assets with a non-zero quantity, in
// ascending policy-then-name byte order
func (v Value) AssetIds() []AssetId {
	var ret []AssetId
	for policy, assets := range v.MultiAsset {
		for name, qty := range assets {
			if qty == 0 {
				continue
			}
			ret = append(ret, AssetId{Policy: policy, Name: name})
		}
	}
	slices.SortFunc(ret, AssetId.Compare)
	return ret
}

// HasAssets reports whether any asset has a non-zero quantity
func (v Value) HasAssets() bool {
	for _, assets := range v.MultiAsset {
		for _, qty := range assets {
			if qty > 0 {
				return true
			}
		}
	}
	return false
}

func (v Value) IsZero() bool {
	return v.Coin == 0 && !v.HasAssets()
}

// Clone returns a deep copy with zero-quantity entries dropped
func (v Value) Clone() Value {
	ret := Value{Coin: v.Coin}
	for policy, assets := range v.MultiAsset {
		for name, qty := range assets {
			ret.set(policy, name, qty)
		}
	}
	return ret
}

func (v Value) Equal(other Value) bool {
	if v.Coin != other.Coin {
		return false
	}
	a, b := v.Clone(), other.Clone()
	return maps.EqualFunc(a.MultiAsset, b.MultiAsset, maps.Equal)
}

func (v Value) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d lovelace", v.Coin)
	for _, id := range v.AssetIds() {
		fmt.Fprintf(
			&sb,
			" + %d %s",
			v.Quantity(id.Policy, id.Name),
			id.String(),
		)
	}
	return sb.String()
}

// CheckedAdd returns a + b, failing if any component overflows
func CheckedAdd(a, b Value) (Value, error) {
	coin, carry := bits.Add64(a.Coin, b.Coin, 0)
	if carry != 0 {
		return Value{}, fmt.Errorf("%w: lovelace", ErrOverflow)
	}
	ret := a.Clone()
	ret.Coin = coin
	for _, id := range b.AssetIds() {
		qty, carry := bits.Add64(
			ret.Quantity(id.Policy, id.Name),
			b.Quantity(id.Policy, id.Name),
			0,
		)
		if carry != 0 {
			return Value{}, fmt.Errorf("%w: asset %s", ErrOverflow, id)
		}
		ret.set(id.Policy, id.Name, qty)
	}
	return ret, nil
}

// CheckedSub returns a - b, failing if any component would go negative
func CheckedSub(a, b Value) (Value, error) {
	if b.Coin > a.Coin {
		return Value{}, fmt.Errorf(
			"%w: lovelace %d < %d",
			ErrUnderflow,
			a.Coin,
			b.Coin,
		)
	}
	ret := a.Clone()
	ret.Coin = a.Coin - b.Coin
	for _, id := range b.AssetIds() {
		have := ret.Quantity(id.Policy, id.Name)
		want := b.Quantity(id.Policy, id.Name)
		if want > have {
			return Value{}, fmt.Errorf(
				"%w: asset %s %d < %d",
				ErrUnderflow,
				id,
				have,
				want,
			)
		}
		ret.set(id.Policy, id.Name, have-want)
	}
	return ret, nil
}

// ClampedSub returns a - b with every component clamped at zero
func ClampedSub(a, b Value) Value {
	ret := a.Clone()
	if b.Coin >= ret.Coin {
		ret.Coin = 0
	} else {
		ret.Coin -= b.Coin
	}
	for _, id := range b.AssetIds() {
		have := ret.Quantity(id.Policy, id.Name)
		want := b.Quantity(id.Policy, id.Name)
		if want >= have {
			ret.set(id.Policy, id.Name, 0)
			continue
		}
		ret.set(id.Policy, id.Name, have-want)
	}
	return ret
}

// Compare is a partial order over values. It returns -1, 0 or 1 when every
// component of a is respectively <=, ==, >= the matching component of b, and
// ok=false when the components disagree
func Compare(a, b Value) (cmp int, ok bool) {
	var less, greater bool
	note := func(x, y uint64) {
		switch {
		case x < y:
			less = true
		case x > y:
			greater = true
		}
	}
	note(a.Coin, b.Coin)
	ids := append(a.AssetIds(), b.AssetIds()...)
	for _, id := range ids {
		note(a.Quantity(id.Policy, id.Name), b.Quantity(id.Policy, id.Name))
	}
	switch {
	case less && greater:
		return 0, false
	case less:
		return -1, true
	case greater:
		return 1, true
	default:
		return 0, true
	}
}
