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
)

func TestKey_Ordering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		first      activity.Key
		second     activity.Key
		wantBefore bool
	}{
		{
			name:       "lower slot orders first",
			first:      activity.Key{Slot: 10, Index: 5},
			second:     activity.Key{Slot: 11, Index: 0},
			wantBefore: true,
		},
		{
			name:       "same slot orders by index",
			first:      activity.Key{Slot: 10, Index: 0},
			second:     activity.Key{Slot: 10, Index: 1},
			wantBefore: true,
		},
		{
			name:       "equal keys are not before each other",
			first:      activity.Key{Slot: 10, Index: 5},
			second:     activity.Key{Slot: 10, Index: 5},
			wantBefore: false,
		},
		{
			name:       "higher slot does not order first",
			first:      activity.Key{Slot: 12, Index: 0},
			second:     activity.Key{Slot: 11, Index: 9},
			wantBefore: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.wantBefore, test.first.Before(test.second))
			if test.first != test.second {
				assert.Equal(t, !test.wantBefore, test.first.After(test.second))
			}
		})
	}
}

func TestKey_ZeroKeyOrdersFirst(t *testing.T) {
	t.Parallel()

	key := activity.Key{Slot: 1, Index: 0}

	assert.True(t, activity.ZeroKey.Before(key))
	assert.True(t, key.After(activity.ZeroKey))
	assert.False(t, activity.ZeroKey.After(activity.ZeroKey))
}
