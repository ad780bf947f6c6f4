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

package index

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/service/storage"
)

// Reader implements the `activity.Reader` interface on top of a Badger
// database. Every call reads from its own Badger view transaction, so it
// sees a consistent snapshot of the index without blocking concurrent
// writes.
type Reader struct {
	db  *badger.DB
	lib *storage.Library
}

// NewReader creates a new index reader that reads from the given Badger
// database using the given storage library.
func NewReader(db *badger.DB, lib *storage.Library) *Reader {

	r := Reader{
		db:  db,
		lib: lib,
	}

	return &r
}

// First returns the ordering key of the first indexed event.
func (r *Reader) First(address activity.Address) (activity.Key, error) {
	var key activity.Key
	err := r.db.View(r.lib.RetrieveFirst(address, &key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return activity.ZeroKey, activity.ErrNotFound
	}
	return key, err
}

// Last returns the ordering key of the last indexed event.
func (r *Reader) Last(address activity.Address) (activity.Key, error) {
	var key activity.Key
	err := r.db.View(r.lib.RetrieveLast(address, &key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return activity.ZeroKey, activity.ErrNotFound
	}
	return key, err
}

// Checkpoint returns the current checkpoint of the given address.
func (r *Reader) Checkpoint(address activity.Address) (*activity.Checkpoint, error) {
	var checkpoint activity.Checkpoint
	err := r.db.View(r.lib.RetrieveCheckpoint(address, &checkpoint))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, activity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// Balance returns the balance projection of the given address.
func (r *Reader) Balance(address activity.Address) (*activity.Balance, error) {
	var balance activity.Balance
	err := r.db.View(r.lib.RetrieveBalance(address, &balance))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, activity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve balance: %w", err)
	}
	return &balance, nil
}

// Events returns up to limit events of the given address whose ordering key
// lies within [from, to], in ascending key order. A limit of zero means no
// limit. When counterparties are given, only events with one of those
// counterparties are returned; the lookup goes through the hash-bucketed
// secondary entries, so events with other counterparties are never decoded.
func (r *Reader) Events(address activity.Address, from activity.Key, to activity.Key, limit uint, parties ...activity.Address) ([]activity.Event, error) {

	var events []activity.Event
	collect := func(event *activity.Event) error {
		events = append(events, *event)
		if limit != 0 && uint(len(events)) >= limit {
			return activity.ErrFinished
		}
		return nil
	}

	var err error
	if len(parties) == 0 {
		err = r.db.View(r.lib.IterateEvents(address, from, to, collect))
	} else {
		err = r.db.View(func(tx *badger.Txn) error {
			return r.lib.IterateParties(address, from, to, parties, func(key activity.Key) error {
				var event activity.Event
				err := r.lib.RetrieveEvent(address, key, &event)(tx)
				if err != nil {
					return fmt.Errorf("could not retrieve event (key: %s): %w", key, err)
				}
				return collect(&event)
			})(tx)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("could not iterate events: %w", err)
	}

	return events, nil
}
