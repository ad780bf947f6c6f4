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

type Decoder struct {
	DecodeFunc func(record *activity.RawRecord) ([]activity.Event, error)
}

func BaselineDecoder(t *testing.T) *Decoder {
	t.Helper()

	d := Decoder{
		DecodeFunc: func(record *activity.RawRecord) ([]activity.Event, error) {
			return GenericEvents(1), nil
		},
	}

	return &d
}

func (d *Decoder) Decode(record *activity.RawRecord) ([]activity.Event, error) {
	return d.DecodeFunc(record)
}
