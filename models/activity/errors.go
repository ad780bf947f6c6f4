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
	"errors"
)

// Sentinel errors.
var (
	// ErrNotFound indicates that the requested entity is not in the index.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates that the requested data is not available yet
	// and the caller should retry later.
	ErrUnavailable = errors.New("unavailable")

	// ErrGap indicates that the upstream source could not guarantee delivery
	// continuity and the sequencer has to resynchronize from the checkpoint.
	ErrGap = errors.New("continuity lost")

	// ErrFinished indicates that the source has been stopped and will not
	// deliver any further records.
	ErrFinished = errors.New("finished")
)
