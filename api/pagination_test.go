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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    PaginationParams
		wantErr bool
	}{
		{
			name:  "defaults",
			query: "",
			want:  PaginationParams{Count: 100, Page: 1, Order: "asc"},
		},
		{
			name:  "explicit",
			query: "?count=10&page=3&order=DESC",
			want:  PaginationParams{Count: 10, Page: 3, Order: "desc"},
		},
		{
			name:  "clamped",
			query: "?count=5000&page=0",
			want:  PaginationParams{Count: MaxPaginationCount, Page: 1, Order: "asc"},
		},
		{
			name:  "minimum count",
			query: "?count=-4",
			want:  PaginationParams{Count: 1, Page: 1, Order: "asc"},
		},
		{name: "bad count", query: "?count=abc", wantErr: true},
		{name: "bad page", query: "?page=x", wantErr: true},
		{name: "bad order", query: "?order=random", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/snapshot/utxos"+tc.query, nil)
			got, err := ParsePagination(req)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPaginationParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	asc := PaginationParams{Count: 2, Page: 2, Order: "asc"}
	assert.Equal(t, []int{3, 4}, paginate(items, asc))
	desc := PaginationParams{Count: 2, Page: 3, Order: "desc"}
	assert.Equal(t, []int{1}, paginate(items, desc))
	past := PaginationParams{Count: 2, Page: 4, Order: "asc"}
	assert.Empty(t, paginate(items, past))
	// the input is left untouched
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestSetPaginationHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetPaginationHeaders(w, 201, PaginationParams{Count: 100})
	assert.Equal(t, "201", w.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", w.Header().Get("X-Pagination-Page-Total"))

	w = httptest.NewRecorder()
	SetPaginationHeaders(w, 0, PaginationParams{})
	assert.Equal(t, "0", w.Header().Get("X-Pagination-Page-Total"))
}
