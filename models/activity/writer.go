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

// Writer represents something that can write to the account activity index.
// Apply commits the event, the balance projection and the checkpoint in a
// single database transaction, so that a crash can never leave the three
// inconsistent with each other. Retract is the exact inverse of a prior
// Apply for the given ordering key.
type Writer interface {
	Apply(event *Event) error
	Retract(address Address, key Key) error
	Close() error
}
