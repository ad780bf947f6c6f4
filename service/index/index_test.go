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

package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/account-indexer/codec/zbor"
	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/service/index"
	"github.com/optakt/account-indexer/service/storage"
	"github.com/optakt/account-indexer/testing/helpers"
	"github.com/optakt/account-indexer/testing/mocks"
)

func TestIndex_ApplyAndRead(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)
	reader := index.NewReader(db, lib)

	address := mocks.GenericAddress(0)
	events := mocks.GenericEvents(3)
	for i := range events {
		require.NoError(t, writer.Apply(&events[i]))
	}

	first, err := reader.First(address)
	require.NoError(t, err)
	assert.Equal(t, events[0].Key, first)

	last, err := reader.Last(address)
	require.NoError(t, err)
	assert.Equal(t, events[2].Key, last)

	checkpoint, err := reader.Checkpoint(address)
	require.NoError(t, err)
	assert.Equal(t, events[2].Key, checkpoint.Last)
	assert.Len(t, checkpoint.Window, 3)

	balance, err := reader.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), balance.Transfers)
	assert.Equal(t, events[2].Key, balance.Last)

	got, err := reader.Events(address, activity.ZeroKey, events[2].Key, 0)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestIndex_ApplyDeduplicatesByHash(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)
	reader := index.NewReader(db, lib)

	event := mocks.GenericEvent(0)
	require.NoError(t, writer.Apply(event))

	// The same content re-delivered at a different position is a no-op.
	duplicate := *event
	duplicate.Key = mocks.GenericKey(1)
	require.NoError(t, writer.Apply(&duplicate))

	balance, err := reader.Balance(event.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance.Transfers)

	last, err := reader.Last(event.Address)
	require.NoError(t, err)
	assert.Equal(t, event.Key, last)
}

func TestIndex_ApplyRejectsKeyRegression(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)

	require.NoError(t, writer.Apply(mocks.GenericEvent(1)))

	// An unseen event at or before the last applied key must be resolved
	// through retraction, not silently applied.
	stale := mocks.GenericEvent(0)
	stale.Hash = mocks.GenericHash(9)

	assert.Error(t, writer.Apply(stale))
}

func TestIndex_RetractInvertsApply(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)
	reader := index.NewReader(db, lib)

	address := mocks.GenericAddress(0)
	events := mocks.GenericEvents(2)
	require.NoError(t, writer.Apply(&events[0]))

	before, err := reader.Balance(address)
	require.NoError(t, err)

	require.NoError(t, writer.Apply(&events[1]))
	require.NoError(t, writer.Retract(address, events[1].Key))

	after, err := reader.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	last, err := reader.Last(address)
	require.NoError(t, err)
	assert.Equal(t, events[0].Key, last)

	checkpoint, err := reader.Checkpoint(address)
	require.NoError(t, err)
	assert.Equal(t, events[0].Key, checkpoint.Last)
	assert.Len(t, checkpoint.Window, 1)

	got, err := reader.Events(address, activity.ZeroKey, events[1].Key, 0)
	require.NoError(t, err)
	assert.Equal(t, events[:1], got)
}

func TestIndex_RetractRequiresTail(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)

	address := mocks.GenericAddress(0)
	events := mocks.GenericEvents(2)
	for i := range events {
		require.NoError(t, writer.Apply(&events[i]))
	}

	t.Run("non-tail key is rejected", func(t *testing.T) {
		assert.Error(t, writer.Retract(address, events[0].Key))
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		err := writer.Retract(address, mocks.GenericKey(9))
		assert.ErrorIs(t, err, activity.ErrNotFound)
	})
}

func TestIndex_WindowIsBounded(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib,
		index.WithWindow(2),
	)
	reader := index.NewReader(db, lib)

	events := mocks.GenericEvents(3)
	for i := range events {
		require.NoError(t, writer.Apply(&events[i]))
	}

	checkpoint, err := reader.Checkpoint(mocks.GenericAddress(0))
	require.NoError(t, err)
	require.Len(t, checkpoint.Window, 2)
	assert.Equal(t, events[1].Key, checkpoint.Window[0].Key)
	assert.Equal(t, events[2].Key, checkpoint.Window[1].Key)
}

func TestIndex_EventsRange(t *testing.T) {
	t.Parallel()

	db := helpers.InMemoryDB(t)
	defer db.Close()

	lib := storage.New(zbor.NewCodec())
	writer := index.NewWriter(db, lib)
	reader := index.NewReader(db, lib)

	address := mocks.GenericAddress(0)
	events := mocks.GenericEvents(4)
	for i := range events {
		require.NoError(t, writer.Apply(&events[i]))
	}

	t.Run("bounded range", func(t *testing.T) {
		got, err := reader.Events(address, events[1].Key, events[2].Key, 0)
		require.NoError(t, err)
		assert.Equal(t, events[1:3], got)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		got, err := reader.Events(address, activity.ZeroKey, events[3].Key, 2)
		require.NoError(t, err)
		assert.Equal(t, events[:2], got)
	})

	t.Run("empty range", func(t *testing.T) {
		got, err := reader.Events(address, mocks.GenericKey(8), mocks.GenericKey(9), 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("filtered by counterparty", func(t *testing.T) {
		got, err := reader.Events(address, activity.ZeroKey, events[3].Key, 0, events[1].Counterparty)
		require.NoError(t, err)
		assert.Equal(t, events[1:2], got)
	})

	t.Run("filtered by multiple counterparties", func(t *testing.T) {
		got, err := reader.Events(address, activity.ZeroKey, events[3].Key, 0, events[0].Counterparty, events[2].Counterparty)
		require.NoError(t, err)
		assert.Equal(t, []activity.Event{events[0], events[2]}, got)
	})

	t.Run("filtered by unknown counterparty", func(t *testing.T) {
		got, err := reader.Events(address, activity.ZeroKey, events[3].Key, 0, mocks.GenericAddress(9))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestIndex_SurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	lib := storage.New(zbor.NewCodec())
	address := mocks.GenericAddress(0)
	events := mocks.GenericEvents(2)

	db := helpers.DiskDB(t, dir)
	writer := index.NewWriter(db, lib)
	for i := range events {
		require.NoError(t, writer.Apply(&events[i]))
	}
	require.NoError(t, writer.Close())
	require.NoError(t, db.Close())

	db = helpers.DiskDB(t, dir)
	defer db.Close()
	reader := index.NewReader(db, lib)

	checkpoint, err := reader.Checkpoint(address)
	require.NoError(t, err)
	assert.Equal(t, events[1].Key, checkpoint.Last)

	balance, err := reader.Balance(address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), balance.Transfers)

	got, err := reader.Events(address, activity.ZeroKey, events[1].Key, 0)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}
