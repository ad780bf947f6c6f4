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

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/optakt/account-indexer/models/activity"
)

// DefaultLimit is the number of transfers returned by a history query when no
// limit is given.
const DefaultLimit = 100

// Controller implements the read-only HTTP API on top of the account activity
// index. Each request reads from its own database snapshot, so responses
// reflect all events applied before the request started.
type Controller struct {
	read activity.Reader
}

// NewController creates a controller serving queries from the given index
// reader.
func NewController(read activity.Reader) *Controller {
	c := Controller{
		read: read,
	}
	return &c
}

// GetBalance returns the current balance projection of the given account,
// along with its summary statistics.
func (c *Controller) GetBalance(ctx echo.Context) error {

	address, err := activity.ParseAddress(ctx.Param("address"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	balance, err := c.read.Balance(address)
	if errors.Is(err, activity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	res := BalanceResponse{
		Address:       balance.Address.String(),
		Balance:       balance.Balance,
		TotalSent:     balance.TotalSent,
		TotalReceived: balance.TotalReceived,
		Transfers:     balance.Transfers,
		LastSlot:      balance.Last.Slot,
		LastIndex:     balance.Last.Index,
	}

	return ctx.JSON(http.StatusOK, res)
}

// GetTransfers returns the transfers of the given account in ascending order
// of their ordering key. The range can be bounded by the `from` and `to` slot
// query parameters, capped with the `limit` parameter and restricted to one
// or more counterparties with repeated `counterparty` parameters.
func (c *Controller) GetTransfers(ctx echo.Context) error {

	address, err := activity.ParseAddress(ctx.Param("address"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	from := activity.ZeroKey
	fromParam := ctx.QueryParam("from")
	if fromParam != "" {
		slot, err := strconv.ParseUint(fromParam, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		from = activity.Key{Slot: slot}
	}

	to := activity.Key{Slot: math.MaxUint64, Index: math.MaxUint32}
	toParam := ctx.QueryParam("to")
	if toParam != "" {
		slot, err := strconv.ParseUint(toParam, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		to = activity.Key{Slot: slot, Index: math.MaxUint32}
	}

	limit := uint(DefaultLimit)
	limitParam := ctx.QueryParam("limit")
	if limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		limit = uint(parsed)
	}

	var parties []activity.Address
	for _, partyParam := range ctx.QueryParams()["counterparty"] {
		party, err := activity.ParseAddress(partyParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		parties = append(parties, party)
	}

	events, err := c.read.Events(address, from, to, limit, parties...)
	if errors.Is(err, activity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	transfers := make([]TransferResponse, 0, len(events))
	for _, event := range events {
		transfers = append(transfers, TransferResponse{
			Slot:         event.Key.Slot,
			Index:        event.Key.Index,
			Amount:       event.Amount,
			Direction:    event.Direction.String(),
			Counterparty: event.Counterparty.String(),
			Signature:    event.Signature,
			Timestamp:    event.Timestamp.Unix(),
			Hash:         event.Hash.String(),
		})
	}

	res := TransfersResponse{
		Address:   address.String(),
		Count:     len(transfers),
		Transfers: transfers,
	}

	return ctx.JSON(http.StatusOK, res)
}
