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

// DefaultWindow is the default size of the checkpoint's recent window, which
// bounds both deduplication lookback and the maximum rollback depth on a
// chain reorganization.
const DefaultWindow = 64

// Writer implements the `activity.Writer` interface on top of a Badger
// database. Every apply and retract commits the event, the balance projection
// and the checkpoint in a single Badger transaction, so a crash between any
// two of the writes is impossible.
type Writer struct {
	db     *badger.DB
	lib    *storage.Library
	window int
}

// NewWriter creates a new index writer that writes to the given Badger
// database using the given storage library.
func NewWriter(db *badger.DB, lib *storage.Library, options ...func(*Writer)) *Writer {

	w := Writer{
		db:     db,
		lib:    lib,
		window: DefaultWindow,
	}

	for _, option := range options {
		option(&w)
	}

	return &w
}

// WithWindow sets the number of recently applied events kept in the
// checkpoint for deduplication and rollback.
func WithWindow(size int) func(*Writer) {
	return func(w *Writer) {
		w.window = size
	}
}

// Apply commits the given event to the index. Re-applying an event that is
// already part of the checkpoint's recent window is a no-op. An event whose
// ordering key does not strictly follow the last applied key is rejected,
// since regressions have to be resolved through Retract first.
func (w *Writer) Apply(event *activity.Event) error {
	return w.db.Update(func(tx *badger.Txn) error {

		var checkpoint activity.Checkpoint
		err := w.lib.RetrieveCheckpoint(event.Address, &checkpoint)(tx)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not retrieve checkpoint: %w", err)
		}
		fresh := errors.Is(err, badger.ErrKeyNotFound)

		// Re-delivery of an already applied event is a no-op, not an error.
		if checkpoint.Seen(event.Hash) {
			return nil
		}

		if !fresh && !event.Key.After(checkpoint.Last) {
			return fmt.Errorf("ordering key regression (last: %s, event: %s)", checkpoint.Last, event.Key)
		}

		var balance activity.Balance
		err = w.lib.RetrieveBalance(event.Address, &balance)(tx)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not retrieve balance: %w", err)
		}
		balance.Address = event.Address
		balance.Apply(event)

		checkpoint.Last = event.Key
		checkpoint.Window = append(checkpoint.Window, activity.Entry{Key: event.Key, Hash: event.Hash})
		if len(checkpoint.Window) > w.window {
			checkpoint.Window = checkpoint.Window[len(checkpoint.Window)-w.window:]
		}

		ops := []func(*badger.Txn) error{
			w.lib.SaveEvent(event),
			w.lib.SaveParty(event),
			w.lib.SaveBalance(&balance),
			w.lib.SaveCheckpoint(event.Address, &checkpoint),
			w.lib.SaveLast(event.Address, event.Key),
		}
		if fresh {
			ops = append(ops, w.lib.SaveFirst(event.Address, event.Key))
		}

		return storage.Combine(ops...)(tx)
	})
}

// Retract removes the event with the given ordering key from the index and
// undoes its effect on the balance projection. It is the exact inverse of a
// prior Apply for that key and fails with activity.ErrNotFound if no such
// event has been applied.
func (w *Writer) Retract(address activity.Address, key activity.Key) error {
	return w.db.Update(func(tx *badger.Txn) error {

		var event activity.Event
		err := w.lib.RetrieveEvent(address, key, &event)(tx)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not retract event (key: %s): %w", key, activity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not retrieve event: %w", err)
		}

		var checkpoint activity.Checkpoint
		err = w.lib.RetrieveCheckpoint(address, &checkpoint)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve checkpoint: %w", err)
		}

		// Only the most recently applied event can be retracted; deeper
		// rollbacks retract one event at a time from the tail.
		if checkpoint.Last != key {
			return fmt.Errorf("retraction out of order (last: %s, key: %s)", checkpoint.Last, key)
		}

		last := activity.ZeroKey
		if n := len(checkpoint.Window); n > 1 {
			last = checkpoint.Window[n-2].Key
		}
		checkpoint.Last = last
		checkpoint.Window = checkpoint.Window[:len(checkpoint.Window)-1]

		var balance activity.Balance
		err = w.lib.RetrieveBalance(address, &balance)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve balance: %w", err)
		}
		balance.Retract(&event, last)

		return storage.Combine(
			w.lib.RemoveEvent(address, key),
			w.lib.RemoveParty(address, key, event.Counterparty),
			w.lib.SaveBalance(&balance),
			w.lib.SaveCheckpoint(address, &checkpoint),
			w.lib.SaveLast(address, last),
		)(tx)
	})
}

// Close closes the index writer and flushes any pending writes to disk.
func (w *Writer) Close() error {
	return w.db.Sync()
}
