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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/internal/service"
	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/spf13/cobra"
)

func snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the stored candidate UTxOs",
	}
	cmd.AddCommand(snapshotImportCommand())
	cmd.AddCommand(snapshotListCommand())
	cmd.AddCommand(snapshotRemoveCommand())
	return cmd
}

func snapshotImportCommand() *cobra.Command {
	var txHex string
	cmd := &cobra.Command{
		Use:   "import [utxos-file]",
		Short: "Import UTxOs from a JSON file, or the outputs of a transaction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (txHex == "") {
				return errors.New("exactly one of a UTxO file or --tx is required")
			}
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			svcs, err := service.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(cmd.Context())
			var count int
			if txHex != "" {
				count, err = svcs.ImportTransaction(strings.TrimSpace(txHex))
			} else {
				f, openErr := openInput(cmd, args[0])
				if openErr != nil {
					return openErr
				}
				defer f.Close()
				count, err = svcs.ImportUtxos(f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d UTxOs\n", count)
			return nil
		},
	}
	cmd.Flags().
		StringVar(&txHex, "tx", "", "hex-encoded transaction whose outputs are imported")
	return cmd
}

func snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored UTxOs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			svcs, err := service.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(cmd.Context())
			all, err := svcs.Snapshot.All()
			if err != nil {
				return err
			}
			ret := make([]bindings.Utxo, 0, len(all))
			for _, u := range all {
				ret = append(ret, bindings.UtxoFromModel(u))
			}
			return printJSON(cmd.OutOrStdout(), ret)
		},
	}
}

func snapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <txid#index>...",
		Short: "Remove stored UTxOs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := make([]utxo.Ref, 0, len(args))
			for _, arg := range args {
				ref, err := utxo.ParseRef(arg)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}
			cfg := mustConfig(cmd)
			logger := commonRun(os.Stderr)
			svcs, err := service.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(cmd.Context())
			if err := svcs.Snapshot.Delete(refs...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d UTxOs\n", len(refs))
			return nil
		},
	}
}
