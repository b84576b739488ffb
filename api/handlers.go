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
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/blinklabs-io/coinselect/utxo"
)

func (s *Server) handleCoinSelection(w http.ResponseWriter, r *http.Request) {
	var req CoinSelectionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	var res *bindings.CoinSelectionResult
	var err error
	if req.Utxos == nil {
		if s.config.Snapshot == nil {
			s.writeError(w, wrapErr(
				ErrInvalidRequest,
				errors.New("no utxos given and no snapshot store configured"),
			))
			return
		}
		candidates, err := s.config.Snapshot.All()
		if err != nil {
			s.writeError(w, fromBoundaryErr(err))
			return
		}
		res, err = s.config.Boundary.SelectCandidates(
			r.Context(),
			candidates,
			req.Target,
		)
		if err != nil {
			s.writeError(w, fromBoundaryErr(err))
			return
		}
	} else {
		res, err = s.config.Boundary.CoinSelection(
			r.Context(),
			req.Utxos,
			req.Target,
		)
		if err != nil {
			s.writeError(w, fromBoundaryErr(err))
			return
		}
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransactionUtxos(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req TransactionUtxosRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	txBytes, err := hex.DecodeString(req.Transaction)
	if err != nil {
		s.writeError(w, wrapErr(ErrDeserialize, fmt.Errorf("hex decode: %w", err)))
		return
	}
	utxos, err := s.config.Boundary.TransactionUtxos(txBytes)
	if err != nil {
		s.writeError(w, fromBoundaryErr(err))
		return
	}
	s.writeJSON(w, http.StatusOK, TransactionUtxosResponse{Utxos: utxos})
}

func (s *Server) handleValueOp(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	switch op {
	case "min-ada":
		s.handleMinAda(w, r)
		return
	case "fingerprints":
		s.handleFingerprints(w, r)
		return
	}
	var req ValueOpRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	var resp any
	var err error
	switch op {
	case "checked-add":
		resp, err = s.config.Boundary.ValueCheckedAdd(req.Lhs, req.Rhs)
	case "checked-sub":
		resp, err = s.config.Boundary.ValueCheckedSub(req.Lhs, req.Rhs)
	case "clamped-sub":
		resp, err = s.config.Boundary.ValueClampedSub(req.Lhs, req.Rhs)
	case "compare":
		resp, err = s.config.Boundary.ValueCompare(req.Lhs, req.Rhs)
	default:
		s.writeError(w, wrapErr(ErrNotFound, fmt.Errorf("unknown value operation: %s", op)))
		return
	}
	if err != nil {
		s.writeError(w, fromBoundaryErr(err))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMinAda(w http.ResponseWriter, r *http.Request) {
	var req MinAdaRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	var minAda uint64
	var err error
	switch {
	case req.TxOutBytes != "":
		minAda, err = s.config.Boundary.MinAdaRequired(
			req.TxOutBytes,
			req.CoinsPerByte,
		)
	case req.Address != "" && req.Value != nil:
		minAda, err = s.config.Boundary.MinAdaRequiredForValue(
			req.Address,
			*req.Value,
			req.CoinsPerByte,
		)
	default:
		s.writeError(w, wrapErr(
			ErrInvalidRequest,
			errors.New("either tx_out_bytes or address and value are required"),
		))
		return
	}
	if err != nil {
		s.writeError(w, fromBoundaryErr(err))
		return
	}
	s.writeJSON(w, http.StatusOK, MinAdaResponse{MinAda: minAda})
}

func (s *Server) handleFingerprints(w http.ResponseWriter, r *http.Request) {
	var req FingerprintsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	fingerprints, err := s.config.Boundary.AssetFingerprints(req.Value)
	if err != nil {
		s.writeError(w, fromBoundaryErr(err))
		return
	}
	s.writeJSON(w, http.StatusOK, FingerprintsResponse{Fingerprints: fingerprints})
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	if s.config.Snapshot == nil {
		s.writeError(w, ErrUnavailable)
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	all, err := s.config.Snapshot.All()
	if err != nil {
		s.writeError(w, fromBoundaryErr(err))
		return
	}
	page := paginate(all, params)
	resp := make([]bindings.Utxo, 0, len(page))
	for _, u := range page {
		resp = append(resp, bindings.UtxoFromModel(u))
	}
	SetPaginationHeaders(w, len(all), params)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshotPut(w http.ResponseWriter, r *http.Request) {
	if s.config.Snapshot == nil {
		s.writeError(w, ErrUnavailable)
		return
	}
	var req SnapshotPutRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	utxos := make([]utxo.UnspentOutput, 0, len(req.Utxos))
	for _, u := range req.Utxos {
		model, err := bindings.UtxoToModel(u, s.config.Boundary.Codec())
		if err != nil {
			s.writeError(w, fromBoundaryErr(err))
			return
		}
		utxos = append(utxos, model)
	}
	if err := s.config.Snapshot.Put(utxos...); err != nil {
		s.writeError(w, wrapErr(ErrInternal, err))
		return
	}
	s.logger.Debug("stored snapshot UTxOs", "count", len(utxos))
	s.writeJSON(w, http.StatusOK, SnapshotPutResponse{Stored: len(utxos)})
}

func (s *Server) handleSnapshotDelete(w http.ResponseWriter, r *http.Request) {
	if s.config.Snapshot == nil {
		s.writeError(w, ErrUnavailable)
		return
	}
	ref, err := utxo.ParseRef(r.PathValue("ref"))
	if err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	if err := s.config.Snapshot.Delete(ref); err != nil {
		s.writeError(w, wrapErr(ErrInternal, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelections(w http.ResponseWriter, r *http.Request) {
	if s.config.Journal == nil {
		s.writeError(w, ErrUnavailable)
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		s.writeError(w, wrapErr(ErrInvalidRequest, err))
		return
	}
	// Newest first unless order=asc is given explicitly
	ascending := r.URL.Query().Get("order") != "" &&
		params.Order == DefaultPaginationOrderAsc
	rows, err := s.config.Journal.List(r.Context(), journal.ListOptions{
		Limit:     params.Count,
		Offset:    (params.Page - 1) * params.Count,
		Ascending: ascending,
	})
	if err != nil {
		s.writeError(w, wrapErr(ErrInternal, err))
		return
	}
	resp := make([]SelectionRecord, 0, len(rows))
	for _, row := range rows {
		selected := []string{}
		if row.Selected != "" {
			selected = strings.Split(row.Selected, ",")
		}
		resp = append(resp, SelectionRecord{
			ID:           row.ID,
			CreatedAt:    row.CreatedAt,
			Target:       row.Target,
			CoinsPerByte: row.CoinsPerByte,
			Candidates:   row.Candidates,
			Selected:     selected,
			Remaining:    row.Remaining,
			Outcome:      row.Outcome,
			Error:        row.Error,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
