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

package mapper_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/account-indexer/codec/zbor"
	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/service/index"
	"github.com/optakt/account-indexer/service/mapper"
	"github.com/optakt/account-indexer/service/storage"
	"github.com/optakt/account-indexer/testing/helpers"
	"github.com/optakt/account-indexer/testing/mocks"
)

// pipeline wires a state machine against a real index on an in-memory
// database, with a scripted source that delivers the given events one per
// record and then shuts down.
func pipeline(t *testing.T, address activity.Address, scripted []activity.Event) (*mapper.FSM, *index.Reader) {
	t.Helper()

	db := helpers.InMemoryDB(t)
	t.Cleanup(func() { db.Close() })

	lib := storage.New(zbor.NewCodec())
	write := index.NewWriter(db, lib)
	read := index.NewReader(db, lib)

	next := 0
	source := mocks.BaselineSource(t)
	source.NextFunc = func() (*activity.RawRecord, error) {
		if next >= len(scripted) {
			return nil, activity.ErrFinished
		}
		record := activity.RawRecord{
			Payload:   mocks.GenericBytes,
			Slot:      scripted[next].Key.Slot,
			Position:  scripted[next].Key.Index,
			Signature: scripted[next].Signature,
		}
		next++
		return &record, nil
	}

	// Each scripted record decodes to exactly the event it was built from.
	decode := mocks.BaselineDecoder(t)
	decode.DecodeFunc = func(record *activity.RawRecord) ([]activity.Event, error) {
		for _, event := range scripted {
			if event.Signature == record.Signature {
				return []activity.Event{event}, nil
			}
		}
		return nil, nil
	}

	transitions := mapper.NewTransitions(mocks.NoopLogger, address, source, mocks.BaselineHistory(t), decode, read, write)
	fsm := mapper.NewFSM(mapper.EmptyState(),
		mapper.WithTransition(mapper.StatusInitialize, transitions.InitializeMapper),
		mapper.WithTransition(mapper.StatusResume, transitions.ResumeIndexing),
		mapper.WithTransition(mapper.StatusBackfill, transitions.BackfillHistory),
		mapper.WithTransition(mapper.StatusLive, transitions.ProcessRecord),
		mapper.WithTransition(mapper.StatusResync, transitions.Resynchronize),
	)

	return fsm, read
}

func event(address activity.Address, slot uint64, amount uint64, direction activity.Direction, hash byte) activity.Event {
	var h activity.Hash
	for i := range h {
		h[i] = hash
	}
	return activity.Event{
		Address:      address,
		Key:          activity.Key{Slot: slot},
		Amount:       amount,
		Direction:    direction,
		Counterparty: mocks.GenericAddress(7),
		Signature:    string([]byte{'s', hash}),
		Hash:         h,
	}
}

func TestPipeline_Scenario(t *testing.T) {
	t.Parallel()

	address, err := activity.ParseAddress("7cMEhpt9y3inBNVv8fNnuaEbx7hKHZnLvR1KWKKxuDDU")
	require.NoError(t, err)

	// Three deliveries: a deposit of 100, a withdrawal of 30, and a
	// re-delivery of the withdrawal's content at a later height.
	deposit := event(address, 1, 100, activity.DirectionReceived, 0x01)
	withdrawal := event(address, 2, 30, activity.DirectionSent, 0x02)
	duplicate := withdrawal
	duplicate.Key = activity.Key{Slot: 3}

	fsm, read := pipeline(t, address, []activity.Event{deposit, withdrawal, duplicate})

	require.NoError(t, fsm.Run())

	balance, err := read.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), balance.Balance)
	assert.Equal(t, uint64(2), balance.Transfers)

	history, err := read.Events(address, activity.ZeroKey, activity.Key{Slot: 10}, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, deposit, history[0])
	assert.Equal(t, withdrawal, history[1])
}

func TestPipeline_Reorganization(t *testing.T) {
	t.Parallel()

	address := mocks.GenericAddress(0)

	// B is delivered first, then superseded by B' with the same key but
	// different content. The index must end up holding [A, B'].
	a := event(address, 10, 100, activity.DirectionReceived, 0x0A)
	b := event(address, 11, 20, activity.DirectionSent, 0x0B)
	bPrime := event(address, 11, 40, activity.DirectionSent, 0x0C)

	fsm, read := pipeline(t, address, []activity.Event{a, b, bPrime})

	require.NoError(t, fsm.Run())

	history, err := read.Events(address, activity.ZeroKey, activity.Key{Slot: 20}, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, a, history[0])
	assert.Equal(t, bPrime, history[1])

	balance, err := read.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), balance.Balance)
	assert.Equal(t, uint64(2), balance.Transfers)
}

func TestPipeline_ReorganizationDuringBackfill(t *testing.T) {
	t.Parallel()

	address := mocks.GenericAddress(0)

	// The index holds [A, B] from a previous run, but the canonical history
	// has replaced B with B' and grown to C. Resolving the reorganization
	// must not cut the catch-up short: the index must end up holding
	// [A, B', C], not just [A, B'].
	a := event(address, 1, 100, activity.DirectionReceived, 0x0A)
	b := event(address, 2, 30, activity.DirectionReceived, 0x0B)
	bPrime := event(address, 2, 40, activity.DirectionReceived, 0x0C)
	c := event(address, 3, 50, activity.DirectionReceived, 0x0D)
	canonical := []activity.Event{a, bPrime, c}

	db := helpers.InMemoryDB(t)
	t.Cleanup(func() { db.Close() })

	lib := storage.New(zbor.NewCodec())
	write := index.NewWriter(db, lib)
	read := index.NewReader(db, lib)

	require.NoError(t, write.Apply(&a))
	require.NoError(t, write.Apply(&b))

	// The listing serves the canonical chain newest first.
	history := mocks.BaselineHistory(t)
	history.SignaturesFunc = func(_ context.Context, _ activity.Address, before string, _ uint) ([]activity.SignatureInfo, error) {
		require.Empty(t, before)
		infos := make([]activity.SignatureInfo, 0, len(canonical))
		for i := len(canonical) - 1; i >= 0; i-- {
			infos = append(infos, activity.SignatureInfo{
				Signature: canonical[i].Signature,
				Slot:      canonical[i].Key.Slot,
			})
		}
		return infos, nil
	}
	history.RecordFunc = func(_ context.Context, signature string, position uint32) (*activity.RawRecord, error) {
		return &activity.RawRecord{Payload: mocks.GenericBytes, Signature: signature, Position: position}, nil
	}

	decode := mocks.BaselineDecoder(t)
	decode.DecodeFunc = func(record *activity.RawRecord) ([]activity.Event, error) {
		for _, event := range canonical {
			if event.Signature == record.Signature {
				return []activity.Event{event}, nil
			}
		}
		return nil, nil
	}

	source := mocks.BaselineSource(t)
	source.NextFunc = func() (*activity.RawRecord, error) {
		return nil, activity.ErrFinished
	}

	transitions := mapper.NewTransitions(mocks.NoopLogger, address, source, history, decode, read, write)
	fsm := mapper.NewFSM(mapper.EmptyState(),
		mapper.WithTransition(mapper.StatusInitialize, transitions.InitializeMapper),
		mapper.WithTransition(mapper.StatusResume, transitions.ResumeIndexing),
		mapper.WithTransition(mapper.StatusBackfill, transitions.BackfillHistory),
		mapper.WithTransition(mapper.StatusLive, transitions.ProcessRecord),
		mapper.WithTransition(mapper.StatusResync, transitions.Resynchronize),
	)

	require.NoError(t, fsm.Run())

	stored, err := read.Events(address, activity.ZeroKey, activity.Key{Slot: 10}, 0)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, a, stored[0])
	assert.Equal(t, bPrime, stored[1])
	assert.Equal(t, c, stored[2])

	balance, err := read.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, uint64(190), balance.Balance)
	assert.Equal(t, uint64(3), balance.Transfers)
}
