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

// Package selection implements the greedy UTxO coin selector. Assets demanded
// by the target are covered first, then lovelace is topped up from the
// remaining candidates ordered by how much of their coin is spendable after
// reserving their own minimum-ADA deposit.
package selection

import (
	"cmp"
	"math"
	"math/big"
	"slices"

	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
)

// DefaultCoinsPerByte is the mainnet coinsPerUTxOByte protocol parameter
const DefaultCoinsPerByte uint64 = 4310

// Result partitions the candidate set. Both slices keep the order in which
// candidates were supplied
type Result struct {
	Selected  []utxo.UnspentOutput
	Remaining []utxo.UnspentOutput
}

// Total returns the summed value of the selected outputs
func (r *Result) Total() (value.Value, error) {
	var total value.Value
	for _, u := range r.Selected {
		var err error
		total, err = value.CheckedAdd(total, u.Amount())
		if err != nil {
			return value.Value{}, err
		}
	}
	return total, nil
}

// selectedSet tracks chosen candidates by identity
type selectedSet map[utxo.Ref]struct{}

func (s selectedSet) has(u utxo.UnspentOutput) bool {
	_, ok := s[u.Ref()]
	return ok
}

// sum folds a per-output quantity over the set members found in candidates.
// It saturates instead of wrapping
func (s selectedSet) sum(
	candidates []utxo.UnspentOutput,
	quantity func(utxo.UnspentOutput) uint64,
) uint64 {
	var acc accumulator
	for _, u := range candidates {
		if s.has(u) {
			acc.add(quantity(u))
		}
	}
	return acc.total
}

type accumulator struct {
	total uint64
}

func (a *accumulator) add(n uint64) {
	if n > math.MaxUint64-a.total {
		a.total = math.MaxUint64
		return
	}
	a.total += n
}

// Select chooses a subset of candidates covering target. Candidates must not
// contain duplicate refs. coinsPerByte is used to compute each candidate's
// own minimum-ADA floor when ordering the lovelace phase
func Select(
	candidates []utxo.UnspentOutput,
	target value.Value,
	coinsPerByte uint64,
) (*Result, error) {
	selected := make(selectedSet)
	if err := selectAssets(candidates, target, selected); err != nil {
		return nil, err
	}
	if err := selectLovelace(
		candidates,
		target.Coin,
		coinsPerByte,
		selected,
	); err != nil {
		return nil, err
	}
	ret := &Result{
		Selected:  make([]utxo.UnspentOutput, 0, len(selected)),
		Remaining: make([]utxo.UnspentOutput, 0, len(candidates)-len(selected)),
	}
	for _, u := range candidates {
		if selected.has(u) {
			ret.Selected = append(ret.Selected, u)
		} else {
			ret.Remaining = append(ret.Remaining, u)
		}
	}
	return ret, nil
}

func selectAssets(
	candidates []utxo.UnspentOutput,
	target value.Value,
	selected selectedSet,
) error {
	ordered := slices.Clone(candidates)
	for _, id := range target.AssetIds() {
		want := target.Quantity(id.Policy, id.Name)
		held := func(u utxo.UnspentOutput) uint64 {
			return u.Quantity(id.Policy, id.Name)
		}
		// Outputs without the asset hold zero, so they sort first
		slices.SortFunc(ordered, func(a, b utxo.UnspentOutput) int {
			if c := cmp.Compare(held(a), held(b)); c != 0 {
				return c
			}
			return a.Ref().Compare(b.Ref())
		})
		acc := accumulator{total: selected.sum(candidates, held)}
		for _, u := range ordered {
			if acc.total >= want {
				break
			}
			qty := held(u)
			if qty == 0 || selected.has(u) {
				continue
			}
			selected[u.Ref()] = struct{}{}
			acc.add(qty)
		}
		if acc.total < want {
			return &InsufficientFundsError{
				Kind:      ShortfallAsset,
				Asset:     id,
				Want:      want,
				Available: acc.total,
			}
		}
	}
	return nil
}

type lovelaceCandidate struct {
	spendable *big.Int
	output    utxo.UnspentOutput
}

// spendable is the output's coin minus the deposit it must carry itself.
// It can be negative when the deposit exceeds the coin
func spendable(u utxo.UnspentOutput, coinsPerByte uint64) *big.Int {
	floor := new(big.Int).Mul(
		big.NewInt(int64(u.OutputSize())),
		new(big.Int).SetUint64(coinsPerByte),
	)
	return floor.Sub(new(big.Int).SetUint64(u.Coin()), floor)
}

func selectLovelace(
	candidates []utxo.UnspentOutput,
	want uint64,
	coinsPerByte uint64,
	selected selectedSet,
) error {
	acc := accumulator{total: selected.sum(candidates, utxo.UnspentOutput.Coin)}
	if acc.total >= want {
		return nil
	}
	rest := make([]lovelaceCandidate, 0, len(candidates))
	for _, u := range candidates {
		if selected.has(u) {
			continue
		}
		rest = append(rest, lovelaceCandidate{
			output:    u,
			spendable: spendable(u, coinsPerByte),
		})
	}
	// Ascending by spendable coin, except that outputs which cannot even
	// cover their own deposit go last
	slices.SortFunc(rest, func(a, b lovelaceCandidate) int {
		aNeg, bNeg := a.spendable.Sign() < 0, b.spendable.Sign() < 0
		if aNeg != bNeg {
			if aNeg {
				return 1
			}
			return -1
		}
		if c := a.spendable.Cmp(b.spendable); c != 0 {
			return c
		}
		return a.output.Ref().Compare(b.output.Ref())
	})
	for _, c := range rest {
		if acc.total >= want {
			break
		}
		selected[c.output.Ref()] = struct{}{}
		acc.add(c.output.Coin())
	}
	if acc.total < want {
		return &InsufficientFundsError{
			Kind:      ShortfallLovelace,
			Want:      want,
			Available: acc.total,
		}
	}
	return nil
}
