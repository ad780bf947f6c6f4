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

package mapper

import (
	"github.com/optakt/account-indexer/models/activity"
)

// State is the state machine's state. The pending events are canonical
// replacements received during a chain reorganization, waiting for the
// retraction of the events they replace.
type State struct {
	status  Status
	pending []activity.Event
	done    chan struct{}
}

// EmptyState returns a new empty state.
func EmptyState() *State {

	s := State{
		status: StatusInitialize,
		done:   make(chan struct{}),
	}

	return &s
}
