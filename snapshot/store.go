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

// Package snapshot keeps a wallet's spendable outputs in badger so that
// selections can be run without the caller supplying candidates each time.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/utxo"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	keyPrefix = "u"
	keySize   = len(keyPrefix) + utxo.TxIdSize + 4

	gcInterval = 5 * time.Minute
)

var ErrUtxoNotFound = errors.New("UTxO not found")

// Store holds output bodies keyed by their ref
type Store struct {
	promRegistry prometheus.Registerer
	decoder      utxo.Decoder
	db           *badger.DB
	logger       *slog.Logger
	metrics      *storeMetrics
	gcTicker     *time.Ticker
	gcStopCh     chan struct{}
	dataDir      string
	gcWg         sync.WaitGroup
	gcEnabled    bool
}

// Open creates or opens a store
func Open(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		gcEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "snapshot")
	if s.decoder == nil {
		s.decoder = codec.LedgerCodec{}
	}
	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true)
		// Nothing to collect
		s.gcEnabled = false
	} else {
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(
			filepath.Join(s.dataDir, "snapshot"),
		).WithCompression(options.Snappy)
	}
	badgerOpts = badgerOpts.
		WithLogger(newBadgerLogger(s.logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	s.db = db
	if s.promRegistry != nil {
		s.metrics = &storeMetrics{}
		s.metrics.init(s.promRegistry)
	}
	if s.gcEnabled {
		s.gcTicker = time.NewTicker(gcInterval)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.valueLogGc(s.gcTicker, s.gcStopCh)
	}
	return s, nil
}

func (s *Store) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
			// Repeat until there is nothing left to rewrite
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Warn(
						fmt.Sprintf("value log GC failure: %s", err),
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

// Close stops background work and closes the database
func (s *Store) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	return s.db.Close()
}

func utxoKey(ref utxo.Ref) []byte {
	key := make([]byte, 0, keySize)
	key = append(key, keyPrefix...)
	key = append(key, ref.TxId[:]...)
	return binary.BigEndian.AppendUint32(key, ref.Index)
}

func refFromKey(key []byte) (utxo.Ref, error) {
	if len(key) != keySize {
		return utxo.Ref{}, fmt.Errorf("unexpected key length %d", len(key))
	}
	txId, err := utxo.NewTxId(key[len(keyPrefix) : len(keyPrefix)+utxo.TxIdSize])
	if err != nil {
		return utxo.Ref{}, err
	}
	return utxo.Ref{
		TxId:  txId,
		Index: binary.BigEndian.Uint32(key[len(keyPrefix)+utxo.TxIdSize:]),
	}, nil
}

// Put stores the given outputs, replacing any with the same ref
func (s *Store) Put(utxos ...utxo.UnspentOutput) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, u := range utxos {
		if err := wb.Set(utxoKey(u.Ref()), u.OutputBytes()); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	s.metrics.op("put", len(utxos))
	s.logger.Debug("stored UTxOs", "count", len(utxos))
	return nil
}

// Get returns a single output, decoding its body
func (s *Store) Get(ref utxo.Ref) (utxo.UnspentOutput, error) {
	var outputBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(utxoKey(ref))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUtxoNotFound
			}
			return err
		}
		outputBytes, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return utxo.UnspentOutput{}, err
	}
	s.metrics.op("get", 1)
	return utxo.Decode(ref, outputBytes, s.decoder)
}

// Delete removes outputs. Refs that are not stored are ignored
func (s *Store) Delete(refs ...utxo.Ref) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, ref := range refs {
			if err := txn.Delete(utxoKey(ref)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.op("delete", len(refs))
	return nil
}

// All returns every stored output ordered by ref
func (s *Store) All() ([]utxo.UnspentOutput, error) {
	var ret []utxo.UnspentOutput
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			ref, err := refFromKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			outputBytes, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			u, err := utxo.Decode(ref, outputBytes, s.decoder)
			if err != nil {
				return err
			}
			ret = append(ret, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.op("scan", 1)
	if s.metrics != nil {
		s.metrics.utxos.Set(float64(len(ret)))
	}
	return ret, nil
}
