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
	"context"
	"testing"

	"github.com/optakt/account-indexer/models/activity"
)

type Source struct {
	NextFunc    func() (*activity.RawRecord, error)
	RestartFunc func(from activity.Key) error
	StopFunc    func(ctx context.Context) error
}

func BaselineSource(t *testing.T) *Source {
	t.Helper()

	s := Source{
		NextFunc: func() (*activity.RawRecord, error) {
			return GenericRecord(0), nil
		},
		RestartFunc: func(from activity.Key) error {
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return nil
		},
	}

	return &s
}

func (s *Source) Next() (*activity.RawRecord, error) {
	return s.NextFunc()
}

func (s *Source) Restart(from activity.Key) error {
	return s.RestartFunc(from)
}

func (s *Source) Stop(ctx context.Context) error {
	return s.StopFunc(ctx)
}
