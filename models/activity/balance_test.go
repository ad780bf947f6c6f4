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

package activity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/testing/mocks"
)

func TestBalance_Apply(t *testing.T) {
	t.Parallel()

	t.Run("received transfer increases balance", func(t *testing.T) {
		t.Parallel()

		balance := activity.Balance{Address: mocks.GenericAddress(0)}

		event := mocks.GenericEvent(0)
		event.Direction = activity.DirectionReceived
		event.Amount = 100

		balance.Apply(event)

		assert.Equal(t, uint64(100), balance.Balance)
		assert.Equal(t, uint64(100), balance.TotalReceived)
		assert.Equal(t, uint64(0), balance.TotalSent)
		assert.Equal(t, uint64(1), balance.Transfers)
		assert.Equal(t, event.Key, balance.Last)
	})

	t.Run("sent transfer decreases balance", func(t *testing.T) {
		t.Parallel()

		balance := activity.Balance{Address: mocks.GenericAddress(0), Balance: 100}

		event := mocks.GenericEvent(0)
		event.Direction = activity.DirectionSent
		event.Amount = 30

		balance.Apply(event)

		assert.Equal(t, uint64(70), balance.Balance)
		assert.Equal(t, uint64(30), balance.TotalSent)
		assert.Equal(t, uint64(1), balance.Transfers)
	})
}

func TestBalance_RetractInvertsApply(t *testing.T) {
	t.Parallel()

	balance := activity.Balance{Address: mocks.GenericAddress(0), Balance: 1000}
	before := balance

	event := mocks.GenericEvent(0)
	event.Direction = activity.DirectionSent
	event.Amount = 250

	balance.Apply(event)
	balance.Retract(event, before.Last)

	assert.Equal(t, before, balance)
}

func TestBalance_ReplayIsDeterministic(t *testing.T) {
	t.Parallel()

	events := mocks.GenericEvents(4)

	first := activity.Balance{Address: mocks.GenericAddress(0)}
	second := activity.Balance{Address: mocks.GenericAddress(0)}
	for i := range events {
		first.Apply(&events[i])
		second.Apply(&events[i])
	}

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(4), first.Transfers)
	assert.Equal(t, events[3].Key, first.Last)
}
