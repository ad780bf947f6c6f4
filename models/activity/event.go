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

package activity

import (
	"fmt"
	"time"
)

// HashLength is the length of an event content hash in bytes.
const HashLength = 32

// Hash is the content hash of an event, used to deduplicate re-delivered
// events and to detect chain reorganizations.
type Hash [HashLength]byte

// String implements the Stringer interface.
func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// Direction indicates whether a transfer moved funds out of or into the
// tracked account.
type Direction uint8

// The following is an enumeration of all transfer directions.
const (
	DirectionSent Direction = iota + 1
	DirectionReceived
)

// String implements the Stringer interface.
func (d Direction) String() string {
	switch d {
	case DirectionSent:
		return "sent"
	case DirectionReceived:
		return "received"
	default:
		return fmt.Sprintf("invalid direction %d", d)
	}
}

// Event is one decoded, typed change observed for the tracked account. Events
// are created by the decoder, ordered and deduplicated by the sequencer and
// persisted by the index store.
type Event struct {
	Address      Address
	Key          Key
	Amount       uint64
	Direction    Direction
	Counterparty Address
	Signature    string
	Timestamp    time.Time
	Hash         Hash
}
