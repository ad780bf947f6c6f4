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

// Balance is the derived current-state projection of an account. It is kept
// consistent with the last applied event and is recomputable at any time by
// deterministic replay of the indexed history.
type Balance struct {
	Address       Address
	Balance       uint64
	TotalSent     uint64
	TotalReceived uint64
	Transfers     uint64
	Last          Key
}

// Apply folds one event into the projection.
func (b *Balance) Apply(event *Event) {
	switch event.Direction {
	case DirectionSent:
		b.Balance -= event.Amount
		b.TotalSent += event.Amount
	case DirectionReceived:
		b.Balance += event.Amount
		b.TotalReceived += event.Amount
	}
	b.Transfers++
	b.Last = event.Key
}

// Retract undoes the effect of one previously applied event. It is the exact
// inverse of Apply for that event.
func (b *Balance) Retract(event *Event, last Key) {
	switch event.Direction {
	case DirectionSent:
		b.Balance += event.Amount
		b.TotalSent -= event.Amount
	case DirectionReceived:
		b.Balance -= event.Amount
		b.TotalReceived -= event.Amount
	}
	b.Transfers--
	b.Last = last
}
