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

package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v2"

	"github.com/optakt/account-indexer/models/activity"
)

// SaveFirst is an operation that writes the ordering key of the first event
// applied for the given address.
func (l *Library) SaveFirst(address activity.Address, key activity.Key) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixFirst, address), key)
}

// SaveLast is an operation that writes the ordering key of the last event
// applied for the given address.
func (l *Library) SaveLast(address activity.Address, key activity.Key) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixLast, address), key)
}

// SaveCheckpoint is an operation that writes the checkpoint of the given
// address.
func (l *Library) SaveCheckpoint(address activity.Address, checkpoint *activity.Checkpoint) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixCheckpoint, address), checkpoint)
}

// SaveEvent is an operation that writes the given event under its ordering
// key.
func (l *Library) SaveEvent(event *activity.Event) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixEvent, event.Address, event.Key), event)
}

// RemoveEvent is an operation that deletes the event with the given ordering
// key.
func (l *Library) RemoveEvent(address activity.Address, key activity.Key) func(*badger.Txn) error {
	return l.remove(EncodeKey(PrefixEvent, address, key))
}

// SaveParty is an operation that writes a secondary entry for the event under
// its ordering key and a hash bucket of its counterparty, so that events can
// be filtered by counterparty without decoding them.
func (l *Library) SaveParty(event *activity.Event) func(*badger.Txn) error {
	bucket := xxhash.Checksum64(event.Counterparty[:])
	return l.save(EncodeKey(PrefixParty, event.Address, event.Key, bucket), event.Counterparty)
}

// RemoveParty is an operation that deletes the secondary counterparty entry
// of the event with the given ordering key.
func (l *Library) RemoveParty(address activity.Address, key activity.Key, counterparty activity.Address) func(*badger.Txn) error {
	bucket := xxhash.Checksum64(counterparty[:])
	return l.remove(EncodeKey(PrefixParty, address, key, bucket))
}

// SaveBalance is an operation that writes the balance projection of the given
// address.
func (l *Library) SaveBalance(balance *activity.Balance) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixBalance, balance.Address), balance)
}

// RetrieveFirst retrieves the ordering key of the first applied event.
func (l *Library) RetrieveFirst(address activity.Address, key *activity.Key) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixFirst, address), key)
}

// RetrieveLast retrieves the ordering key of the last applied event.
func (l *Library) RetrieveLast(address activity.Address, key *activity.Key) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixLast, address), key)
}

// RetrieveCheckpoint retrieves the checkpoint of the given address.
func (l *Library) RetrieveCheckpoint(address activity.Address, checkpoint *activity.Checkpoint) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixCheckpoint, address), checkpoint)
}

// RetrieveEvent retrieves the event with the given ordering key.
func (l *Library) RetrieveEvent(address activity.Address, key activity.Key, event *activity.Event) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixEvent, address, key), event)
}

// RetrieveBalance retrieves the balance projection of the given address.
func (l *Library) RetrieveBalance(address activity.Address, balance *activity.Balance) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixBalance, address), balance)
}

// IterateEvents steps through all events of the given address whose ordering
// key lies within [from, to], in ascending key order, and calls the given
// callback for each of them. The callback can return activity.ErrFinished to
// stop the iteration early without failing it.
func (l *Library) IterateEvents(address activity.Address, from activity.Key, to activity.Key, process func(event *activity.Event) error) func(*badger.Txn) error {

	prefix := EncodeKey(PrefixEvent, address)
	opts := badger.DefaultIteratorOptions
	// NOTE: this is an optimization only, it does not enforce that all
	// results in the iteration have this prefix.
	opts.Prefix = prefix

	start := EncodeKey(PrefixEvent, address, from)
	end := EncodeKey(PrefixEvent, address, to)

	return func(tx *badger.Txn) error {

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if bytes.Compare(key, end) > 0 {
				break
			}

			var event activity.Event
			err := it.Item().Value(func(val []byte) error {
				return l.codec.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("could not decode event (key: %x): %w", key, err)
			}

			err = process(&event)
			if errors.Is(err, activity.ErrFinished) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not process event (key: %s): %w", event.Key, err)
			}
		}

		return nil
	}
}

// IterateParties steps through the secondary counterparty entries of the
// given address whose ordering key lies within [from, to], in ascending key
// order, and calls the given callback with the ordering key of every entry
// whose counterparty bucket matches one of the given counterparties. The
// callback can return activity.ErrFinished to stop the iteration early
// without failing it.
func (l *Library) IterateParties(address activity.Address, from activity.Key, to activity.Key, parties []activity.Address, process func(key activity.Key) error) func(*badger.Txn) error {

	lookup := make(map[uint64]struct{})
	for _, party := range parties {
		lookup[xxhash.Checksum64(party[:])] = struct{}{}
	}

	prefix := EncodeKey(PrefixParty, address)
	opts := badger.DefaultIteratorOptions
	// NOTE: this is an optimization only, it does not enforce that all
	// results in the iteration have this prefix.
	opts.Prefix = prefix

	start := EncodeKey(PrefixParty, address, from)
	end := EncodeKey(PrefixParty, address, to, uint64(math.MaxUint64))

	return func(tx *badger.Txn) error {

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			full := it.Item().Key()
			if bytes.Compare(full, end) > 0 {
				break
			}

			// The key layout is prefix, address, ordering key, bucket.
			rest := full[1+activity.AddressLength:]
			key := activity.Key{
				Slot:  binary.BigEndian.Uint64(rest[0:8]),
				Index: binary.BigEndian.Uint32(rest[8:12]),
			}
			bucket := binary.BigEndian.Uint64(rest[12:20])
			_, ok := lookup[bucket]
			if !ok {
				continue
			}

			err := process(key)
			if errors.Is(err, activity.ErrFinished) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not process entry (key: %s): %w", key, err)
			}
		}

		return nil
	}
}
