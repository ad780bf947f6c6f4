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

package rest

// BalanceResponse is the response to a balance query. Amounts are expressed
// in raw token units.
type BalanceResponse struct {
	Address       string `json:"address"`
	Balance       uint64 `json:"balance"`
	TotalSent     uint64 `json:"total_sent"`
	TotalReceived uint64 `json:"total_received"`
	Transfers     uint64 `json:"transfers"`
	LastSlot      uint64 `json:"last_slot"`
	LastIndex     uint32 `json:"last_index"`
}

// TransferResponse is one transfer within a history query response.
type TransferResponse struct {
	Slot         uint64 `json:"slot"`
	Index        uint32 `json:"index"`
	Amount       uint64 `json:"amount"`
	Direction    string `json:"direction"`
	Counterparty string `json:"counterparty"`
	Signature    string `json:"signature"`
	Timestamp    int64  `json:"timestamp"`
	Hash         string `json:"hash"`
}

// TransfersResponse is the response to a history query.
type TransfersResponse struct {
	Address   string             `json:"address"`
	Count     int                `json:"count"`
	Transfers []TransferResponse `json:"transfers"`
}
