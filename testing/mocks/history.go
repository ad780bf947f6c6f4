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

type History struct {
	SignaturesFunc func(ctx context.Context, address activity.Address, before string, limit uint) ([]activity.SignatureInfo, error)
	RecordFunc     func(ctx context.Context, signature string, position uint32) (*activity.RawRecord, error)
}

func BaselineHistory(t *testing.T) *History {
	t.Helper()

	h := History{
		SignaturesFunc: func(ctx context.Context, address activity.Address, before string, limit uint) ([]activity.SignatureInfo, error) {
			return nil, nil
		},
		RecordFunc: func(ctx context.Context, signature string, position uint32) (*activity.RawRecord, error) {
			return GenericRecord(0), nil
		},
	}

	return &h
}

func (h *History) Signatures(ctx context.Context, address activity.Address, before string, limit uint) ([]activity.SignatureInfo, error) {
	return h.SignaturesFunc(ctx, address, before, limit)
}

func (h *History) Record(ctx context.Context, signature string, position uint32) (*activity.RawRecord, error) {
	return h.RecordFunc(ctx, signature, position)
}
