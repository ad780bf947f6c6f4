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
	"time"
)

// RawRecord is one opaque transaction record as delivered by the upstream
// node, along with the source metadata needed for ordering. It is owned by
// the subscriber until it has been decoded, after which it is discarded.
type RawRecord struct {
	Payload   []byte
	Slot      uint64
	Position  uint32
	Signature string
	Received  time.Time
}
