// Copyright 2022 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package subscriber_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/service/subscriber"
	"github.com/optakt/account-indexer/testing/mocks"
)

func rpcServer(t *testing.T, wantMethod string, result string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Version string        `json:"jsonrpc"`
			Method  string        `json:"method"`
			Params  []interface{} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "2.0", request.Version)
		assert.Equal(t, wantMethod, request.Method)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func TestClient_Signatures(t *testing.T) {
	t.Parallel()

	t.Run("nominal case", func(t *testing.T) {
		t.Parallel()

		server := rpcServer(t, "getSignaturesForAddress", `[
			{"signature": "sig-2", "slot": 12, "err": null, "blockTime": 1650000002},
			{"signature": "sig-1", "slot": 11, "err": {"InstructionError": [0, "Custom"]}, "blockTime": 1650000001}
		]`)
		defer server.Close()

		client := subscriber.NewClient(server.URL)
		infos, err := client.Signatures(context.Background(), mocks.GenericAddress(0), "", 1000)

		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, activity.SignatureInfo{Signature: "sig-2", Slot: 12, BlockTime: 1650000002}, infos[0])
		assert.True(t, infos[1].Failed)
	})

	t.Run("handles error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"node is behind"}}`))
		}))
		defer server.Close()

		client := subscriber.NewClient(server.URL)
		_, err := client.Signatures(context.Background(), mocks.GenericAddress(0), "", 1000)

		assert.Error(t, err)
	})

	t.Run("handles unavailable endpoint", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := subscriber.NewClient(server.URL)
		_, err := client.Signatures(context.Background(), mocks.GenericAddress(0), "", 1000)

		assert.Error(t, err)
	})
}

func TestClient_Record(t *testing.T) {
	t.Parallel()

	t.Run("nominal case", func(t *testing.T) {
		t.Parallel()

		server := rpcServer(t, "getTransaction", `{"slot": 1000, "blockTime": 1650000000, "meta": {"err": null}}`)
		defer server.Close()

		client := subscriber.NewClient(server.URL)
		record, err := client.Record(context.Background(), "sig-test", 16)

		require.NoError(t, err)
		assert.Equal(t, uint64(1000), record.Slot)
		assert.Equal(t, uint32(16), record.Position)
		assert.Equal(t, "sig-test", record.Signature)
		assert.NotEmpty(t, record.Payload)
	})

	t.Run("missing transaction is unavailable", func(t *testing.T) {
		t.Parallel()

		server := rpcServer(t, "getTransaction", `null`)
		defer server.Close()

		client := subscriber.NewClient(server.URL)
		_, err := client.Record(context.Background(), "sig-test", 0)

		assert.ErrorIs(t, err, activity.ErrUnavailable)
	})
}
