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

package mocks

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/optakt/account-indexer/models/activity"
)

// Global variables that can be used for testing. They are non-nil valid
// values for the types commonly needed to test indexer components.
var (
	NoopLogger = zerolog.New(io.Discard)

	GenericError = errors.New("dummy error")

	GenericSlot = uint64(42)

	GenericBytes = []byte(`test`)
)

// GenericAddress returns a deterministic address fixture for the given index.
func GenericAddress(index int) activity.Address {
	var address activity.Address
	for i := 0; i < activity.AddressLength; i++ {
		address[i] = byte(index + 1)
	}
	return address
}

// GenericHash returns a deterministic content hash fixture for the given
// index.
func GenericHash(index int) activity.Hash {
	var hash activity.Hash
	for i := 0; i < activity.HashLength; i++ {
		hash[i] = byte(index + 101)
	}
	return hash
}

// GenericKey returns a deterministic ordering key fixture for the given
// index, strictly increasing with the index.
func GenericKey(index int) activity.Key {
	return activity.Key{
		Slot:  GenericSlot + uint64(index),
		Index: uint32(index),
	}
}

// GenericEvent returns a deterministic event fixture for the given index,
// with keys strictly increasing with the index.
func GenericEvent(index int) *activity.Event {
	event := activity.Event{
		Address:      GenericAddress(0),
		Key:          GenericKey(index),
		Amount:       uint64(1000 * (index + 1)),
		Direction:    activity.DirectionReceived,
		Counterparty: GenericAddress(index + 1),
		Signature:    fmt.Sprintf("signature-%d", index),
		Timestamp:    time.Date(1972, 11, 12, 13, 14, 15, 0, time.UTC),
		Hash:         GenericHash(index),
	}
	return &event
}

// GenericEvents returns the given number of deterministic event fixtures,
// with strictly increasing keys.
func GenericEvents(number int) []activity.Event {
	events := make([]activity.Event, 0, number)
	for i := 0; i < number; i++ {
		events = append(events, *GenericEvent(i))
	}
	return events
}

// GenericCheckpoint returns a deterministic checkpoint fixture whose window
// contains the entries of the given number of generic events.
func GenericCheckpoint(number int) *activity.Checkpoint {
	window := make([]activity.Entry, 0, number)
	for i := 0; i < number; i++ {
		window = append(window, activity.Entry{
			Key:  GenericKey(i),
			Hash: GenericHash(i),
		})
	}
	checkpoint := activity.Checkpoint{
		Last:   GenericKey(number - 1),
		Window: window,
	}
	return &checkpoint
}

// GenericBalance returns a deterministic balance fixture for the tracked
// account.
func GenericBalance() *activity.Balance {
	balance := activity.Balance{
		Address:       GenericAddress(0),
		Balance:       1000,
		TotalSent:     500,
		TotalReceived: 1500,
		Transfers:     3,
		Last:          GenericKey(2),
	}
	return &balance
}

// GenericRecord returns a deterministic raw record fixture for the given
// index.
func GenericRecord(index int) *activity.RawRecord {
	record := activity.RawRecord{
		Payload:   GenericBytes,
		Slot:      GenericSlot + uint64(index),
		Position:  uint32(index) * activity.PositionStride,
		Signature: fmt.Sprintf("signature-%d", index),
		Received:  time.Date(1972, 11, 12, 13, 14, 15, 0, time.UTC),
	}
	return &record
}
