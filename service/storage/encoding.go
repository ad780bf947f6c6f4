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
	"encoding/binary"
	"fmt"

	"github.com/optakt/account-indexer/models/activity"
)

// EncodeKey composes a database key from a prefix and a number of typed
// segments. Numeric segments are encoded big-endian so that the
// lexicographic order of encoded keys matches their numeric order.
func EncodeKey(prefix uint8, segments ...interface{}) []byte {
	key := []byte{prefix}
	var val []byte
	for _, segment := range segments {
		switch s := segment.(type) {
		case uint32:
			val = make([]byte, 4)
			binary.BigEndian.PutUint32(val, s)
		case uint64:
			val = make([]byte, 8)
			binary.BigEndian.PutUint64(val, s)
		case activity.Address:
			val = make([]byte, activity.AddressLength)
			copy(val, s[:])
		case activity.Hash:
			val = make([]byte, activity.HashLength)
			copy(val, s[:])
		case activity.Key:
			val = make([]byte, 12)
			binary.BigEndian.PutUint64(val, s.Slot)
			binary.BigEndian.PutUint32(val[8:], s.Index)
		default:
			panic(fmt.Sprintf("unknown type (%T)", segment))
		}
		key = append(key, val...)
	}

	return key
}
