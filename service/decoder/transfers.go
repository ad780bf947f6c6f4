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

package decoder

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/optakt/account-indexer/models/activity"
)

// transaction models the subset of the upstream JSON transaction encoding
// that the decoder needs. The full schema is owned and versioned by the
// upstream node.
type transaction struct {
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime"`
	Meta      *meta  `json:"meta"`
	Transaction struct {
		Signatures []string `json:"signatures"`
	} `json:"transaction"`
}

type meta struct {
	Err               interface{}    `json:"err"`
	PreTokenBalances  []tokenBalance `json:"preTokenBalances"`
	PostTokenBalances []tokenBalance `json:"postTokenBalances"`
}

type tokenBalance struct {
	AccountIndex  uint32 `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount string `json:"amount"`
	} `json:"uiTokenAmount"`
}

type transfer struct {
	amount uint64
	from   string
	to     string
}

type change struct {
	account uint32
	delta   int64
	owner   string
}

// diffBalances derives the token transfers of a transaction from the balance
// difference between its pre- and post-state, for the tracked mint only.
// Balance decreases are matched against increases of the same amount to form
// transfers. A malformed amount on a tracked-mint balance is an error, since
// treating it as zero would fabricate a balance change.
func diffBalances(pre []tokenBalance, post []tokenBalance) ([]transfer, error) {

	preByAccount := make(map[uint32]tokenBalance)
	for _, balance := range pre {
		preByAccount[balance.AccountIndex] = balance
	}
	postByAccount := make(map[uint32]tokenBalance)
	for _, balance := range post {
		postByAccount[balance.AccountIndex] = balance
	}

	accounts := make(map[uint32]struct{})
	for _, balance := range pre {
		accounts[balance.AccountIndex] = struct{}{}
	}
	for _, balance := range post {
		accounts[balance.AccountIndex] = struct{}{}
	}

	var changes []change
	for account := range accounts {

		preBalance, hasPre := preByAccount[account]
		postBalance, hasPost := postByAccount[account]

		var mint, owner string
		if hasPre {
			mint = preBalance.Mint
			owner = preBalance.Owner
		}
		if hasPost {
			mint = postBalance.Mint
			owner = postBalance.Owner
		}
		if !activity.IsTrackedMint(mint) {
			continue
		}

		var before, after uint64
		if hasPre {
			amount, err := parseAmount(preBalance.UITokenAmount.Amount)
			if err != nil {
				return nil, fmt.Errorf("could not parse pre-state amount (account: %d): %w", account, err)
			}
			before = amount
		}
		if hasPost {
			amount, err := parseAmount(postBalance.UITokenAmount.Amount)
			if err != nil {
				return nil, fmt.Errorf("could not parse post-state amount (account: %d): %w", account, err)
			}
			after = amount
		}

		delta := int64(after) - int64(before)
		if delta == 0 {
			continue
		}

		changes = append(changes, change{account: account, delta: delta, owner: owner})
	}

	// Iteration over the account set is randomized, so order the changes by
	// account index to keep decoding deterministic.
	sort.Slice(changes, func(i int, j int) bool {
		return changes[i].account < changes[j].account
	})

	var decreases, increases []change
	for _, c := range changes {
		if c.delta < 0 {
			decreases = append(decreases, c)
		} else {
			increases = append(increases, c)
		}
	}

	var transfers []transfer
	for _, decrease := range decreases {
		amount := uint64(-decrease.delta)
		for i, increase := range increases {
			if uint64(increase.delta) != amount {
				continue
			}
			transfers = append(transfers, transfer{
				amount: amount,
				from:   decrease.owner,
				to:     increase.owner,
			})
			increases = append(increases[:i], increases[i+1:]...)
			break
		}
	}

	return transfers, nil
}

func parseAmount(amount string) (uint64, error) {
	return strconv.ParseUint(amount, 10, 64)
}
