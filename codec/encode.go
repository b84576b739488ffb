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

package codec

import (
	"fmt"

	"github.com/blinklabs-io/coinselect/value"
	"github.com/fxamacker/cbor/v2"
)

// EncodeOutput serializes an output in the post-Babbage map form using
// deterministic CBOR encoding
func EncodeOutput(address []byte, amount value.Value) ([]byte, error) {
	if len(address) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	type postAlonzoOutput struct {
		Address []byte `cbor:"0,keyasint"`
		Amount  any    `cbor:"1,keyasint"`
	}
	out := postAlonzoOutput{Address: address}
	if amount.HasAssets() {
		assets := make(map[cbor.ByteString]map[cbor.ByteString]uint64)
		for _, id := range amount.AssetIds() {
			policy := cbor.ByteString(id.Policy.Bytes())
			if _, ok := assets[policy]; !ok {
				assets[policy] = make(map[cbor.ByteString]uint64)
			}
			assets[policy][cbor.ByteString(id.Name)] = amount.Quantity(
				id.Policy,
				id.Name,
			)
		}
		out.Amount = outputAmount{Coin: amount.Coin, Assets: assets}
	} else {
		out.Amount = amount.Coin
	}
	return encMode.Marshal(out)
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()
