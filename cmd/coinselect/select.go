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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/internal/service"
	"github.com/spf13/cobra"
)

// openInput opens path for reading, with "-" meaning stdin
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

func readTarget(cmd *cobra.Command, path string, coin uint64) (bindings.Value, error) {
	if path == "" {
		return bindings.Value{Coin: coin}, nil
	}
	f, err := openInput(cmd, path)
	if err != nil {
		return bindings.Value{}, err
	}
	defer f.Close()
	var ret bindings.Value
	if err := json.NewDecoder(f).Decode(&ret); err != nil {
		return bindings.Value{}, fmt.Errorf("failed to decode target: %w", err)
	}
	if coin != 0 {
		ret.Coin = coin
	}
	return ret, nil
}

func selectCommand() *cobra.Command {
	var utxosFile, targetFile string
	var coin uint64
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select UTxOs covering a target value",
		Long: "Select UTxOs covering a target value. Candidates are read " +
			"from --utxos, or from the snapshot store when it is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetFile == "" && coin == 0 {
				return errors.New("one of --target or --coin is required")
			}
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			target, err := readTarget(cmd, targetFile, coin)
			if err != nil {
				return err
			}
			svcs, err := service.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(cmd.Context())
			var res *bindings.CoinSelectionResult
			if utxosFile != "" {
				f, err := openInput(cmd, utxosFile)
				if err != nil {
					return err
				}
				defer f.Close()
				utxos, err := service.ReadUtxos(f)
				if err != nil {
					return err
				}
				res, err = svcs.Boundary.CoinSelection(cmd.Context(), utxos, target)
				if err != nil {
					return err
				}
			} else {
				candidates, err := svcs.Snapshot.All()
				if err != nil {
					return err
				}
				res, err = svcs.Boundary.SelectCandidates(
					cmd.Context(),
					candidates,
					target,
				)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().
		StringVar(&utxosFile, "utxos", "", "JSON file of candidate UTxOs, '-' for stdin")
	cmd.Flags().
		StringVar(&targetFile, "target", "", "JSON file holding the target value, '-' for stdin")
	cmd.Flags().
		Uint64Var(&coin, "coin", 0, "target lovelace, overriding the target file's coin")
	return cmd
}
