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

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the length of an account address in bytes.
const AddressLength = 32

// Address is the fixed-length identifier of the account whose activity is
// being indexed. Addresses are compared by exact byte equality.
type Address [AddressLength]byte

// ParseAddress decodes the base58 representation of an account address.
func ParseAddress(address string) (Address, error) {
	var a Address
	data, err := base58.Decode(address)
	if err != nil {
		return Address{}, fmt.Errorf("could not decode address: %w", err)
	}
	if len(data) != AddressLength {
		return Address{}, fmt.Errorf("invalid address length (have: %d, want: %d)", len(data), AddressLength)
	}
	copy(a[:], data)
	return a, nil
}

// String implements the Stringer interface.
func (a Address) String() string {
	return base58.Encode(a[:])
}
