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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/optakt/account-indexer/models/activity"
)

// TransitionFunc is a function that is applied onto the state machine's
// state.
type TransitionFunc func(*State) error

// FSM is the state machine that drives the sequencing pipeline. It applies
// the transition registered for the current status until it is stopped or a
// transition fails.
type FSM struct {
	state       *State
	transitions map[Status]TransitionFunc
	wg          *sync.WaitGroup
}

// NewFSM creates a new state machine with the given state and transitions.
func NewFSM(state *State, options ...func(*FSM)) *FSM {

	f := FSM{
		state:       state,
		transitions: make(map[Status]TransitionFunc),
		wg:          &sync.WaitGroup{},
	}

	for _, option := range options {
		option(&f)
	}

	return &f
}

// WithTransition specifies which TransitionFunc should be used when the state
// machine has the given status.
func WithTransition(status Status, transition TransitionFunc) func(*FSM) {
	return func(f *FSM) {
		f.transitions[status] = transition
	}
}

// Run drives the state machine until it is stopped or a transition fails.
func (f *FSM) Run() error {
	f.wg.Add(1)
	defer f.wg.Done()

	for {
		select {
		case <-f.state.done:
			return nil
		default:
		}

		transition, ok := f.transitions[f.state.status]
		if !ok {
			return fmt.Errorf("could not find transition for status (%s)", f.state.status)
		}

		err := transition(f.state)
		if errors.Is(err, activity.ErrFinished) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not apply transition to state: %w", err)
		}
	}
}

// Stop gracefully stops the state machine, letting a transition that is
// already in progress run to completion.
func (f *FSM) Stop(ctx context.Context) error {
	close(f.state.done)

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
