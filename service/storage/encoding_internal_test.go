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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optakt/account-indexer/models/activity"
	"github.com/optakt/account-indexer/testing/mocks"
)

func TestEncodeKey(t *testing.T) {
	t.Parallel()

	t.Run("prefix is first byte", func(t *testing.T) {
		t.Parallel()

		key := EncodeKey(PrefixEvent, mocks.GenericAddress(0))

		assert.Equal(t, uint8(PrefixEvent), key[0])
		assert.Len(t, key, 1+activity.AddressLength)
	})

	t.Run("ordering key encodes as slot then index", func(t *testing.T) {
		t.Parallel()

		key := EncodeKey(PrefixEvent, activity.Key{Slot: 0x0102030405060708, Index: 0x0A0B0C0D})

		want := []byte{
			PrefixEvent,
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			0x0A, 0x0B, 0x0C, 0x0D,
		}
		assert.Equal(t, want, key)
	})

	t.Run("lexicographic order matches numeric order", func(t *testing.T) {
		t.Parallel()

		address := mocks.GenericAddress(0)
		low := EncodeKey(PrefixEvent, address, activity.Key{Slot: 1, Index: 256})
		mid := EncodeKey(PrefixEvent, address, activity.Key{Slot: 2, Index: 0})
		high := EncodeKey(PrefixEvent, address, activity.Key{Slot: 2, Index: 1})

		assert.True(t, bytes.Compare(low, mid) < 0)
		assert.True(t, bytes.Compare(mid, high) < 0)
	})

	t.Run("unknown segment type panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			_ = EncodeKey(PrefixEvent, "bogus")
		})
	})
}
