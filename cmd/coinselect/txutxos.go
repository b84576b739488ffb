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

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/codec"
	"github.com/spf13/cobra"
)

func txUtxosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tx-utxos <tx-hex|->",
		Short: "Print the UTxOs a transaction will create",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			_ = commonRun(os.Stderr)
			txHex := args[0]
			if txHex == "-" {
				buf, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				txHex = string(buf)
			}
			txBytes, err := hex.DecodeString(strings.TrimSpace(txHex))
			if err != nil {
				return fmt.Errorf("failed to decode transaction hex: %w", err)
			}
			c, err := codec.New(cfg.Codec)
			if err != nil {
				return err
			}
			boundary := bindings.New(bindings.Config{Codec: c})
			utxos, err := boundary.TransactionUtxos(txBytes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), utxos)
		},
	}
}
