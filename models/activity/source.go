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
	"context"
)

// Source represents a live subscription to the upstream node, delivering raw
// transaction records for the tracked account. Next returns ErrUnavailable
// when no record is buffered yet, ErrGap exactly once after the source lost
// delivery continuity and ErrFinished after the source has been stopped.
// Restart re-arms the subscription so that delivery resumes from the given
// checkpoint position.
type Source interface {
	Next() (*RawRecord, error)
	Restart(from Key) error
	Stop(ctx context.Context) error
}

// History represents the upstream query endpoint used to backfill records
// that predate the live subscription.
type History interface {
	Signatures(ctx context.Context, address Address, before string, limit uint) ([]SignatureInfo, error)
	Record(ctx context.Context, signature string, position uint32) (*RawRecord, error)
}

// SignatureInfo is the summary of one historical transaction as returned by
// the upstream signature listing, newest first.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	Failed    bool
	BlockTime int64
}

// Decoder represents something that can turn a raw record into the typed
// events it encodes. Decoding is deterministic and free of side effects.
type Decoder interface {
	Decode(record *RawRecord) ([]Event, error)
}
