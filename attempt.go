// Copyright 2025 Aerospike, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retry

import "time"

// AttemptSettings describes a single attempt of a remote call: how long to
// wait before issuing it and what per-attempt timeout to apply.
// Values are never mutated in place; each attempt is derived from the
// previous one by ExponentialAlgorithm.CreateNextAttempt.
type AttemptSettings struct {
	// AttemptCount is the number of retries performed so far for the
	// current logical invocation. It is 0 on the first attempt.
	AttemptCount int

	// OverallAttemptCount is the number of retries performed so far
	// across the whole call. It keeps growing when AttemptCount is
	// reset, for example after a long-poll resumption.
	OverallAttemptCount int

	// FirstAttemptStartTime is the start time of the first attempt,
	// used to enforce the total timeout.
	FirstAttemptStartTime time.Time

	// RetryDelay is the nominal, unjittered delay before this attempt.
	RetryDelay time.Duration

	// RandomizedRetryDelay is the actual delay to apply before this
	// attempt. It equals RetryDelay when jitter is disabled.
	RandomizedRetryDelay time.Duration

	// RPCTimeout is the timeout to apply to this attempt's call.
	RPCTimeout time.Duration
}

// ResetAttemptCount returns a copy of the settings with AttemptCount set
// back to 0. OverallAttemptCount and FirstAttemptStartTime are carried
// over, so the total timeout and the overall counter keep their meaning.
func (a AttemptSettings) ResetAttemptCount() AttemptSettings {
	a.AttemptCount = 0

	return a
}
