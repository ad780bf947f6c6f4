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
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/optakt/account-indexer/models/activity"
)

// Decoder turns raw upstream transaction records into the typed transfer
// events they encode for the tracked account. Decoding is a pure function of
// the record bytes: identical records always yield identical event sets,
// including content hashes.
type Decoder struct {
	address activity.Address
	encoder cbor.EncMode
}

// New creates a new decoder for activity of the given account address.
func New(address activity.Address) *Decoder {

	// Canonical encoding keeps the content hash deterministic; the options
	// are static, so failing to build the mode is a programming error.
	encoder, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	d := Decoder{
		address: address,
		encoder: encoder,
	}

	return &d
}

// Decode extracts zero or more transfer events from the given raw record. A
// single record can encode several logical transfers. Records of failed
// transactions and transfers that do not involve the tracked account yield no
// events. Malformed payloads return an error; the caller is expected to drop
// the record and report the error without halting the pipeline.
func (d *Decoder) Decode(record *activity.RawRecord) ([]activity.Event, error) {

	var tx transaction
	err := json.Unmarshal(record.Payload, &tx)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal record payload: %w", err)
	}

	if tx.Meta == nil {
		return nil, fmt.Errorf("record payload is missing transaction meta")
	}

	// Failed transactions do not change any balances.
	if tx.Meta.Err != nil {
		return nil, nil
	}

	transfers, err := diffBalances(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances)
	if err != nil {
		return nil, fmt.Errorf("could not derive transfers: %w", err)
	}

	signature := record.Signature
	if signature == "" && len(tx.Transaction.Signatures) > 0 {
		signature = tx.Transaction.Signatures[0]
	}

	timestamp := time.Unix(tx.BlockTime, 0).UTC()

	var events []activity.Event
	for _, transfer := range transfers {

		from, err := activity.ParseAddress(transfer.from)
		if err != nil {
			return nil, fmt.Errorf("could not parse sender address: %w", err)
		}
		to, err := activity.ParseAddress(transfer.to)
		if err != nil {
			return nil, fmt.Errorf("could not parse recipient address: %w", err)
		}

		var direction activity.Direction
		var counterparty activity.Address
		switch d.address {
		case from:
			direction = activity.DirectionSent
			counterparty = to
		case to:
			direction = activity.DirectionReceived
			counterparty = from
		default:
			continue
		}

		// The low bits of the record position distinguish multiple transfers
		// within one transaction; more transfers than the stride would bleed
		// into the key range of the next record.
		if len(events) >= activity.PositionStride {
			return nil, fmt.Errorf("too many transfers in one transaction (limit: %d)", activity.PositionStride)
		}

		event := activity.Event{
			Address: d.address,
			Key: activity.Key{
				Slot:  record.Slot,
				Index: record.Position + uint32(len(events)),
			},
			Amount:       transfer.amount,
			Direction:    direction,
			Counterparty: counterparty,
			Signature:    signature,
			Timestamp:    timestamp,
		}

		hash, err := d.hash(&event)
		if err != nil {
			return nil, fmt.Errorf("could not hash event: %w", err)
		}
		event.Hash = hash

		events = append(events, event)
	}

	return events, nil
}

// hash computes the content hash of an event over the canonical encoding of
// its payload fields. The ordering key is deliberately excluded, so that the
// same logical transfer keeps its hash when a reorganization moves it to a
// different position.
func (d *Decoder) hash(event *activity.Event) (activity.Hash, error) {
	body := struct {
		Address      activity.Address
		Amount       uint64
		Direction    activity.Direction
		Counterparty activity.Address
		Signature    string
	}{
		Address:      event.Address,
		Amount:       event.Amount,
		Direction:    event.Direction,
		Counterparty: event.Counterparty,
		Signature:    event.Signature,
	}

	data, err := d.encoder.Marshal(body)
	if err != nil {
		return activity.Hash{}, fmt.Errorf("could not encode event body: %w", err)
	}

	return sha256.Sum256(data), nil
}
