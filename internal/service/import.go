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

package service

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/utxo"
)

// ReadUtxos decodes a JSON array of host UTxOs
func ReadUtxos(r io.Reader) ([]bindings.Utxo, error) {
	var ret []bindings.Utxo
	if err := json.NewDecoder(r).Decode(&ret); err != nil {
		return nil, fmt.Errorf("failed to decode UTxOs: %w", err)
	}
	return ret, nil
}

// ImportUtxos stores a JSON array of host UTxOs in the snapshot
func (s *Services) ImportUtxos(r io.Reader) (int, error) {
	hostUtxos, err := ReadUtxos(r)
	if err != nil {
		return 0, err
	}
	utxos := make([]utxo.UnspentOutput, 0, len(hostUtxos))
	for _, u := range hostUtxos {
		model, err := bindings.UtxoToModel(u, s.Boundary.Codec())
		if err != nil {
			return 0, err
		}
		utxos = append(utxos, model)
	}
	if err := s.Snapshot.Put(utxos...); err != nil {
		return 0, err
	}
	s.logger.Info(
		fmt.Sprintf("imported %d UTxOs", len(utxos)),
		"component", "service",
	)
	return len(utxos), nil
}

// ImportTransaction stores the outputs a hex-encoded transaction will create
func (s *Services) ImportTransaction(txHex string) (int, error) {
	txBytes, err := hex.DecodeString(txHex)
	if err != nil {
		return 0, fmt.Errorf("failed to decode transaction hex: %w", err)
	}
	produced, err := s.Boundary.Codec().ProducedUtxos(txBytes)
	if err != nil {
		return 0, err
	}
	if err := s.Snapshot.Put(produced...); err != nil {
		return 0, err
	}
	s.logger.Info(
		fmt.Sprintf("imported %d transaction outputs", len(produced)),
		"component", "service",
	)
	return len(produced), nil
}
