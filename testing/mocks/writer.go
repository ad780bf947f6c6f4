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

type Writer struct {
	ApplyFunc   func(event *activity.Event) error
	RetractFunc func(address activity.Address, key activity.Key) error
	CloseFunc   func() error
}

func BaselineWriter(t *testing.T) *Writer {
	t.Helper()

	w := Writer{
		ApplyFunc: func(event *activity.Event) error {
			return nil
		},
		RetractFunc: func(address activity.Address, key activity.Key) error {
			return nil
		},
		CloseFunc: func() error {
			return nil
		},
	}

	return &w
}

func (w *Writer) Apply(event *activity.Event) error {
	return w.ApplyFunc(event)
}

func (w *Writer) Retract(address activity.Address, key activity.Key) error {
	return w.RetractFunc(address, key)
}

func (w *Writer) Close() error {
	return w.CloseFunc()
}
