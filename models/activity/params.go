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

// Token mint addresses recognized by the decoder. Transfers of any other
// mint are ignored.
const (
	USDCMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

// USDCDecimals is the number of decimals of the tracked token; raw amounts
// are expressed in units of 10^-6.
const USDCDecimals = 6

// PositionStride spaces record positions within a slot so that the decoder
// can derive distinct ordering keys for multiple transfers inside one
// transaction. The live subscription and the historical backfill both use it,
// so that a record always maps to the same ordering keys regardless of which
// path delivered it.
const PositionStride = 16

// IsTrackedMint returns true if the given mint address belongs to the token
// whose transfers are indexed.
func IsTrackedMint(mint string) bool {
	return mint == USDCMainnet || mint == USDCDevnet
}
