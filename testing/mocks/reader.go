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

package mocks

import (
	"testing"

	"github.com/optakt/account-indexer/models/activity"
)

type Reader struct {
	FirstFunc      func(address activity.Address) (activity.Key, error)
	LastFunc       func(address activity.Address) (activity.Key, error)
	CheckpointFunc func(address activity.Address) (*activity.Checkpoint, error)
	BalanceFunc    func(address activity.Address) (*activity.Balance, error)
	EventsFunc     func(address activity.Address, from activity.Key, to activity.Key, limit uint, parties ...activity.Address) ([]activity.Event, error)
}

func BaselineReader(t *testing.T) *Reader {
	t.Helper()

	r := Reader{
		FirstFunc: func(address activity.Address) (activity.Key, error) {
			return GenericKey(0), nil
		},
		LastFunc: func(address activity.Address) (activity.Key, error) {
			return GenericKey(2), nil
		},
		CheckpointFunc: func(address activity.Address) (*activity.Checkpoint, error) {
			return GenericCheckpoint(3), nil
		},
		BalanceFunc: func(address activity.Address) (*activity.Balance, error) {
			return GenericBalance(), nil
		},
		EventsFunc: func(address activity.Address, from activity.Key, to activity.Key, limit uint, parties ...activity.Address) ([]activity.Event, error) {
			return GenericEvents(3), nil
		},
	}

	return &r
}

func (r *Reader) First(address activity.Address) (activity.Key, error) {
	return r.FirstFunc(address)
}

func (r *Reader) Last(address activity.Address) (activity.Key, error) {
	return r.LastFunc(address)
}

func (r *Reader) Checkpoint(address activity.Address) (*activity.Checkpoint, error) {
	return r.CheckpointFunc(address)
}

func (r *Reader) Balance(address activity.Address) (*activity.Balance, error) {
	return r.BalanceFunc(address)
}

func (r *Reader) Events(address activity.Address, from activity.Key, to activity.Key, limit uint, parties ...activity.Address) ([]activity.Event, error) {
	return r.EventsFunc(address, from, to, limit, parties...)
}
