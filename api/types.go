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
	"time"

	"github.com/blinklabs-io/coinselect/bindings"
)

// CoinSelectionRequest selects from Utxos, or from the snapshot store when
// Utxos is omitted
type CoinSelectionRequest struct {
	Utxos  []bindings.Utxo `json:"utxos,omitempty"`
	Target bindings.Value  `json:"target"`
}

type TransactionUtxosRequest struct {
	// Transaction is the hex-encoded CBOR transaction
	Transaction string `json:"transaction"`
}

type TransactionUtxosResponse struct {
	Utxos []bindings.Utxo `json:"utxos"`
}

// ValueOpRequest is the body of the binary value operations
type ValueOpRequest struct {
	Lhs bindings.Value `json:"lhs"`
	Rhs bindings.Value `json:"rhs"`
}

// MinAdaRequest takes either a serialized output or an address and value
type MinAdaRequest struct {
	Value        *bindings.Value `json:"value,omitempty"`
	TxOutBytes   string          `json:"tx_out_bytes,omitempty"`
	Address      string          `json:"address,omitempty"`
	CoinsPerByte uint64          `json:"coins_per_byte,omitempty"`
}

type MinAdaResponse struct {
	MinAda uint64 `json:"min_ada"`
}

type FingerprintsRequest struct {
	Value bindings.Value `json:"value"`
}

type FingerprintsResponse struct {
	Fingerprints map[string]string `json:"fingerprints"`
}

type SnapshotPutRequest struct {
	Utxos []bindings.Utxo `json:"utxos"`
}

type SnapshotPutResponse struct {
	Stored int `json:"stored"`
}

type SelectionRecord struct {
	CreatedAt    time.Time `json:"created_at"`
	Target       string    `json:"target"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	Selected     []string  `json:"selected"`
	ID           uint      `json:"id"`
	CoinsPerByte uint64    `json:"coins_per_byte"`
	Candidates   int       `json:"candidates"`
	Remaining    int       `json:"remaining"`
}
