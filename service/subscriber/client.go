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

package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/optakt/account-indexer/models/activity"
)

// Client implements the `activity.History` interface against the JSON-RPC
// query endpoint of an upstream node. It is used to backfill records that
// predate the live subscription.
type Client struct {
	http *http.Client
	url  string
}

// NewClient creates a new history client for the node at the given URL.
func NewClient(url string) *Client {

	c := Client{
		http: &http.Client{Timeout: 30 * time.Second},
		url:  url,
	}

	return &c
}

// Signatures returns up to limit transaction signatures involving the given
// address, newest first, starting before the given signature cursor. An empty
// cursor starts from the most recent transaction.
func (c *Client) Signatures(ctx context.Context, address activity.Address, before string, limit uint) ([]activity.SignatureInfo, error) {

	params := []interface{}{
		address.String(),
		map[string]interface{}{
			"limit":      limit,
			"commitment": "confirmed",
		},
	}
	if before != "" {
		params[1].(map[string]interface{})["before"] = before
	}

	var result []struct {
		Signature string      `json:"signature"`
		Slot      uint64      `json:"slot"`
		Err       interface{} `json:"err"`
		BlockTime int64       `json:"blockTime"`
	}
	err := c.call(ctx, "getSignaturesForAddress", params, &result)
	if err != nil {
		return nil, fmt.Errorf("could not list signatures: %w", err)
	}

	infos := make([]activity.SignatureInfo, 0, len(result))
	for _, entry := range result {
		infos = append(infos, activity.SignatureInfo{
			Signature: entry.Signature,
			Slot:      entry.Slot,
			Failed:    entry.Err != nil,
			BlockTime: entry.BlockTime,
		})
	}

	return infos, nil
}

// Record returns the full raw record of the transaction with the given
// signature, tagged with the given position within its slot.
func (c *Client) Record(ctx context.Context, signature string, position uint32) (*activity.RawRecord, error) {

	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result json.RawMessage
	err := c.call(ctx, "getTransaction", params, &result)
	if err != nil {
		return nil, fmt.Errorf("could not get transaction: %w", err)
	}
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, activity.ErrUnavailable
	}

	var envelope struct {
		Slot uint64 `json:"slot"`
	}
	err = json.Unmarshal(result, &envelope)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal transaction envelope: %w", err)
	}

	record := activity.RawRecord{
		Payload:   result,
		Slot:      envelope.Slot,
		Position:  position,
		Signature: signature,
		Received:  time.Now().UTC(),
	}

	return &record, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {

	request := struct {
		Version string        `json:"jsonrpc"`
		ID      uint          `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
	}{
		Version: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status (%d)", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	var response struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	err = json.Unmarshal(data, &response)
	if err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	if response.Error != nil {
		return fmt.Errorf("request failed (code: %d): %s", response.Error.Code, response.Error.Message)
	}

	err = json.Unmarshal(response.Result, result)
	if err != nil {
		return fmt.Errorf("could not unmarshal result: %w", err)
	}

	return nil
}
