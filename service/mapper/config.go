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

package mapper

import (
	"time"
)

// Option is a function that modifies the transitions configuration.
type Option func(*Config)

// DefaultConfig is the default configuration for the transitions.
var DefaultConfig = Config{
	WaitInterval: 100 * time.Millisecond,
	PageSize:     1000,
	PageDelay:    100 * time.Millisecond,
}

// Config holds the tuning knobs for the transitions.
type Config struct {
	WaitInterval time.Duration
	PageSize     uint
	PageDelay    time.Duration
}

// WithWaitInterval sets how long a transition sleeps before retrying when no
// input is available or a transient error occurred.
func WithWaitInterval(interval time.Duration) Option {
	return func(cfg *Config) {
		cfg.WaitInterval = interval
	}
}

// WithPageSize sets how many signatures are requested per page when paging
// through the wallet's history.
func WithPageSize(size uint) Option {
	return func(cfg *Config) {
		cfg.PageSize = size
	}
}

// WithPageDelay sets how long to pause between signature pages to stay below
// the node's rate limits.
func WithPageDelay(delay time.Duration) Option {
	return func(cfg *Config) {
		cfg.PageDelay = delay
	}
}
