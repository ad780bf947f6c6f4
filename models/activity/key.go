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
)

// Key is the ordering key of an event. It establishes a total order over all
// events of one account, first by slot and then by the position of the event
// within the slot.
type Key struct {
	Slot  uint64
	Index uint32
}

// ZeroKey is the ordering key before any event has been applied.
var ZeroKey = Key{}

// Before returns true if the key strictly precedes the other key.
func (k Key) Before(o Key) bool {
	if k.Slot != o.Slot {
		return k.Slot < o.Slot
	}
	return k.Index < o.Index
}

// After returns true if the key strictly follows the other key.
func (k Key) After(o Key) bool {
	return o.Before(k)
}

// String implements the Stringer interface.
func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.Slot, k.Index)
}
