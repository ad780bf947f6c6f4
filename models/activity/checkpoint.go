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

// Entry is one (ordering key, content hash) pair within the checkpoint's
// recent window.
type Entry struct {
	Key  Key
	Hash Hash
}

// Checkpoint is the durable marker of ingestion progress. It holds the
// ordering key of the last applied event, along with a short window of
// recently applied entries used to deduplicate re-delivered events and to
// determine the rollback depth on a chain reorganization. The checkpoint is
// only ever mutated by the index store, atomically with the apply or retract
// it belongs to.
type Checkpoint struct {
	Last   Key
	Window []Entry
}

// Seen returns true if an event with the given content hash is part of the
// recent window, in which case the event is a re-delivery and applying it is
// a no-op. Deduplication is by content hash alone, since a re-delivered
// event can carry a slightly different position while encoding the same
// logical transfer.
func (c *Checkpoint) Seen(hash Hash) bool {
	for _, entry := range c.Window {
		if entry.Hash == hash {
			return true
		}
	}
	return false
}

// Conflicts returns true if the given key is at or before the last applied
// key while carrying an unseen content hash, which signals a chain
// reorganization. An empty checkpoint has no applied events to conflict
// with, so any key is free, including the zero key itself.
func (c *Checkpoint) Conflicts(key Key, hash Hash) bool {
	if len(c.Window) == 0 {
		return false
	}
	if key.After(c.Last) {
		return false
	}
	return !c.Seen(hash)
}

// Depth returns the number of trailing window entries whose ordering key is
// at or after the given divergence point. This is the number of events that
// have to be retracted before the canonical replacements can be applied.
func (c *Checkpoint) Depth(key Key) int {
	depth := 0
	for i := len(c.Window) - 1; i >= 0; i-- {
		if c.Window[i].Key.Before(key) {
			break
		}
		depth++
	}
	return depth
}
