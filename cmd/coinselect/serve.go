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
	"os"

	"github.com/blinklabs-io/coinselect/internal/config"
	"github.com/blinklabs-io/coinselect/internal/service"
	"github.com/spf13/cobra"
)

func serveRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun(os.Stdout)
	logger.Info(
		"starting coinselect",
		"component", programName,
		"codec", cfg.Codec,
		"data_dir", cfg.DataDir,
		"coins_per_byte", cfg.CoinsPerByte,
	)
	return service.Run(cmd.Context(), cfg, logger)
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, mustConfig(cmd))
		},
	}
	return cmd
}
