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
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/internal/config"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shelley-era transaction with a single output of 1501412593 lovelace
const testTransactionCBORHex = "83a50081825820377732953cbd7eb824e58291dd08599cfcfe6eedb49f590633610674fc3c33c50001818258390187acac5a3d0b41cd1c5e8c03af5be782f261f21beed70970ddee0873ae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e9091331a597dbcf1021a0002fd99031a025c094a04828a03581c27b1b4470c84db78ce1ffbfff77bb068abb4e47d43cb6009caaa352358204a7537ce9eeaba1c650261f167827b4e12dd403c4bf13c56b2cba06288f7e9ab1a59682f001a1443fd00d81e82011864581de1ae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e90913381581cae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e9091338183011917706e33342e3139382e3234312e323336827468747470733a2f2f6769742e696f2f4a7543786e5820fa77d30bb41e2998233245d269ff5763ecf4371388214943ecef277cae45492783028200581cae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e909133581c27b1b4470c84db78ce1ffbfff77bb068abb4e47d43cb6009caaa3523a10083825820922a22d07c0ca148105760cb767ece603574ea465d6697c87da8207c8936ebea58405594a100197379c0de715de0b5304e0546e661dae2f36b12173cc150a42215356a5600bf0c02954f02ce3620cfb7f12c23a19328fd00dd1194b4f363675ef407825820727c1891d01cf29ccd1146528221827dcf00a093498509404af77a8b15d77c925840f52e0e1403167212b11fe5d87b7cfdb2f39e5384979ac3625917127ad46763d864a7fcb7147c7b85322ada7ba8fe91c0b5152c74ef4ff0c8132b125e681af50382582073c16f2b67ff85307c4c5935bad1389b9ead473419dbad20f5d5e6436982992b58400572eed773b9a199fd486ebe61b480f05803d107ea97ff649f28b8874d3117f890f80657cbb6eea0d833c21e4e8bc7f1a27cddb9e24fc1ed79b04ddbdcd11d0ff6"

const (
	testTxId       = "38fdf914155ac6f50f60c80c9aa3c41ffef8f420651750994553197fdf842955"
	testCoinOutHex = "a20058390187acac5a3d0b41cd1c5e8c03af5be782f261f21beed70970ddee0873ae34f9d442c7f1a01de9f2dd520791122d6fbf3968c5f8328e909133011a001e8480"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Codec = "raw"
	cfg.CoinsPerByte = 1
	return cfg
}

func openServices(t *testing.T, cfg *config.Config) *Services {
	t.Helper()
	svcs, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, svcs.Close(context.Background()))
	})
	return svcs
}

func TestOpenInvalidCodec(t *testing.T) {
	cfg := testConfig(t)
	cfg.Codec = "byron"
	_, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestImportAndSelect(t *testing.T) {
	svcs := openServices(t, testConfig(t))
	n, err := svcs.ImportUtxos(strings.NewReader(`[
		{"transaction_hash": "1111111111111111111111111111111111111111111111111111111111111111", "transaction_index": 0, "tx_out_bytes": "` + testCoinOutHex + `"},
		{"transaction_hash": "2222222222222222222222222222222222222222222222222222222222222222", "transaction_index": 1, "tx_out_bytes": "` + testCoinOutHex + `"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svcs.ImportTransaction(testTransactionCBORHex)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := svcs.Snapshot.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, testTxId, all[2].Ref().TxId.String())

	candidates, err := svcs.Snapshot.All()
	require.NoError(t, err)
	res, err := svcs.Boundary.SelectCandidates(
		context.Background(),
		candidates,
		bindings.Value{Coin: 3_000_000},
	)
	require.NoError(t, err)
	// Both 2 ADA outputs sort before the large one
	require.Len(t, res.Selected, 2)
	assert.Equal(t, testTxId, res.Other[0].TransactionHash)

	rows, err := svcs.Journal.List(context.Background(), journal.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0].Outcome)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	svcs.MetricsHandler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "coinselect_selections_total")
	assert.Contains(t, string(body), "coinselect_snapshot_utxos 3")
}

func TestImportErrors(t *testing.T) {
	svcs := openServices(t, testConfig(t))
	_, err := svcs.ImportUtxos(strings.NewReader("{"))
	require.Error(t, err)
	_, err = svcs.ImportUtxos(strings.NewReader(`[{"transaction_hash": "00"}]`))
	require.Error(t, err)
	_, err = svcs.ImportTransaction("zz")
	require.Error(t, err)
	_, err = svcs.ImportTransaction("80")
	require.Error(t, err)
}

func TestApiServerWithoutJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal = false
	svcs := openServices(t, cfg)
	assert.Nil(t, svcs.Journal)
	server, err := svcs.ApiServer()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/selections", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.BindAddr = "127.0.0.1"
	cfg.ApiPort = 0
	cfg.MetricsPort = 0
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg, nil)
	}()
	cancel()
	require.NoError(t, <-errCh)
}

func freePort(t *testing.T) uint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return uint(port)
}

func TestRunReleasesMetricsWhenApiFails(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := testConfig(t)
	cfg.BindAddr = "127.0.0.1"
	cfg.ApiPort = uint(taken.Addr().(*net.TCPAddr).Port)
	cfg.MetricsPort = freePort(t)

	err = Run(context.Background(), cfg, nil)
	require.Error(t, err)

	ln, err := net.Listen("tcp", cfg.MetricsListenAddress())
	require.NoError(t, err, "metrics listener still bound after Run returned")
	assert.NoError(t, ln.Close())
}
