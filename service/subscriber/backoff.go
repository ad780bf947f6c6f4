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

package subscriber

import (
	"math/rand"
	"time"
)

// Retry strategy for the upstream connection. Retries continue indefinitely
// unless a retry cap is configured; only the interval between attempts is
// bounded.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// nextBackoff doubles the given interval up to the bounded maximum and adds
// up to 10% of jitter to avoid thundering herds on upstream recovery.
func nextBackoff(current time.Duration) time.Duration {
	next := 2 * current
	if next > maxBackoff {
		next = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(next) / 10))
	return next + jitter
}
