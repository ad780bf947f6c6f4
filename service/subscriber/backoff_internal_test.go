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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	t.Parallel()

	t.Run("doubles the interval", func(t *testing.T) {
		t.Parallel()

		next := nextBackoff(initialBackoff)

		assert.GreaterOrEqual(t, next, 2*initialBackoff)
		assert.LessOrEqual(t, next, 2*initialBackoff+2*initialBackoff/10)
	})

	t.Run("caps at the maximum", func(t *testing.T) {
		t.Parallel()

		next := nextBackoff(maxBackoff)

		assert.GreaterOrEqual(t, next, maxBackoff)
		assert.LessOrEqual(t, next, maxBackoff+maxBackoff/10)
	})

	t.Run("never sleeps beyond the jittered maximum", func(t *testing.T) {
		t.Parallel()

		backoff := initialBackoff
		for i := 0; i < 10; i++ {
			backoff = nextBackoff(backoff)
			assert.LessOrEqual(t, backoff, maxBackoff+maxBackoff/10)
		}
		assert.GreaterOrEqual(t, backoff, maxBackoff)
	})
}
