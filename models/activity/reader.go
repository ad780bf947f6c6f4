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

// Reader represents something that can read from the account activity index.
// All reads see a consistent snapshot of the index as of the moment the call
// started; they never block writers beyond a short critical section.
type Reader interface {
	First(address Address) (Key, error)
	Last(address Address) (Key, error)
	Checkpoint(address Address) (*Checkpoint, error)
	Balance(address Address) (*Balance, error)
	Events(address Address, from Key, to Key, limit uint, parties ...Address) ([]Event, error)
}
