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

// Package journal records every selection the service performs in SQLite, so
// that a selection can be audited and reproduced later.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blinklabs-io/coinselect/selection"
	"github.com/blinklabs-io/coinselect/utxo"
	"github.com/blinklabs-io/coinselect/value"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

const DefaultRecentLimit = 50

// Selection is a single journal row
type Selection struct {
	CreatedAt    time.Time `gorm:"index"`
	Target       string
	Selected     string
	Outcome      string `gorm:"index"`
	Error        string
	ID           uint `gorm:"primarykey"`
	CoinsPerByte uint64
	Candidates   int
	Remaining    int
}

func (Selection) TableName() string {
	return "selection"
}

// SelectedRefs parses the stored list of selected refs
func (s Selection) SelectedRefs() ([]utxo.Ref, error) {
	if s.Selected == "" {
		return []utxo.Ref{}, nil
	}
	parts := strings.Split(s.Selected, ",")
	ret := make([]utxo.Ref, 0, len(parts))
	for _, part := range parts {
		ref, err := utxo.ParseRef(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, ref)
	}
	return ret, nil
}

// Entry describes a finished selection
type Entry struct {
	Result       *selection.Result
	Err          error
	Target       value.Value
	CoinsPerByte uint64
	Candidates   int
}

// Journal is a SQLite-backed selection log
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New opens the journal. Uses an in-memory database if dataDir is empty
func New(dataDir string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	var db *gorm.DB
	var err error
	if dataDir == "" {
		db, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			gormConfig,
		)
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dbPath := filepath.Join(dataDir, "journal.sqlite")
		connOpts := "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		db, err = gorm.Open(
			sqlite.Open(fmt.Sprintf("file:%s?%s", dbPath, connOpts)),
			gormConfig,
		)
		if err != nil {
			return nil, err
		}
	}
	j := &Journal{
		db:     db,
		logger: logger.With("component", "journal"),
	}
	if err := j.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		_ = j.Close()
		return nil, err
	}
	j.logger.Debug(fmt.Sprintf("creating table: %#v", &Selection{}))
	if err := j.db.AutoMigrate(&Selection{}); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// Record stores a finished selection and returns the stored row
func (j *Journal) Record(ctx context.Context, entry Entry) (*Selection, error) {
	target, err := json.Marshal(targetRecord(entry.Target))
	if err != nil {
		return nil, err
	}
	row := &Selection{
		Target:       string(target),
		CoinsPerByte: entry.CoinsPerByte,
		Candidates:   entry.Candidates,
		Outcome:      selection.Outcome(entry.Err),
	}
	if entry.Err != nil {
		row.Error = entry.Err.Error()
	}
	if entry.Err == nil && entry.Result != nil {
		selected := make([]string, 0, len(entry.Result.Selected))
		for _, u := range entry.Result.Selected {
			selected = append(selected, u.Ref().String())
		}
		row.Selected = strings.Join(selected, ",")
		row.Remaining = len(entry.Result.Remaining)
	}
	if result := j.db.WithContext(ctx).Create(row); result.Error != nil {
		return nil, result.Error
	}
	j.logger.Debug(
		"recorded selection",
		"id", row.ID,
		"outcome", row.Outcome,
	)
	return row, nil
}

// ListOptions selects a window of journal rows. Rows are ordered by ID,
// newest first unless Ascending is set
type ListOptions struct {
	Limit     int
	Offset    int
	Ascending bool
}

// List returns up to opts.Limit rows after skipping opts.Offset rows
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Selection, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultRecentLimit
	}
	order := "id DESC"
	if opts.Ascending {
		order = "id ASC"
	}
	var ret []Selection
	result := j.db.WithContext(ctx).
		Order(order).
		Offset(max(0, opts.Offset)).
		Limit(opts.Limit).
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// Close closes the underlying database connection
func (j *Journal) Close() error {
	sqlDb, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

// targetJSON is the JSON form of a target, keyed by hex policy ID and hex
// asset name
type targetJSON struct {
	Assets map[string]map[string]uint64 `json:"multiasset,omitempty"`
	Coin   uint64                       `json:"coin"`
}

func targetRecord(v value.Value) targetJSON {
	ret := targetJSON{Coin: v.Coin}
	for _, id := range v.AssetIds() {
		if ret.Assets == nil {
			ret.Assets = make(map[string]map[string]uint64)
		}
		policy := id.Policy.String()
		if _, ok := ret.Assets[policy]; !ok {
			ret.Assets[policy] = make(map[string]uint64)
		}
		ret.Assets[policy][id.Name.String()] = v.Quantity(id.Policy, id.Name)
	}
	return ret
}
