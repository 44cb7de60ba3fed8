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

import (
	"fmt"
	"time"
)

// RetrySettings defines the timing parameters for retrying a remote call.
// A validated RetrySettings is read-only and safe to share across
// concurrent calls driven by the same policy.
type RetrySettings struct {
	// MaxAttempts caps the total number of attempts.
	// If set to 0, the attempt count is unlimited.
	MaxAttempts int

	// InitialRetryDelay is the delay before the second attempt.
	InitialRetryDelay time.Duration

	// RetryDelayMultiplier is used to increase the delay between
	// subsequent attempts. The nominal delay for an attempt is
	// calculated as: previous delay * RetryDelayMultiplier, capped at
	// MaxRetryDelay.
	RetryDelayMultiplier float64

	// MaxRetryDelay is the ceiling on the computed retry delay.
	MaxRetryDelay time.Duration

	// InitialRPCTimeout is the per-attempt timeout for the first attempt.
	InitialRPCTimeout time.Duration

	// RPCTimeoutMultiplier is used to increase the per-attempt timeout
	// for subsequent attempts, capped at MaxRPCTimeout.
	RPCTimeoutMultiplier float64

	// MaxRPCTimeout is the ceiling on the per-attempt timeout.
	MaxRPCTimeout time.Duration

	// TotalTimeout is the wall-clock budget for the whole call,
	// measured from the start of the first attempt.
	// If set to 0, there is no overall budget.
	TotalTimeout time.Duration

	// Jittered randomizes each retry delay over [0, nominal delay].
	Jittered bool
}

// NewRetrySettings validates the given settings and returns them.
func NewRetrySettings(settings RetrySettings) (*RetrySettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// NewDefaultRetrySettings returns settings suitable for most remote calls.
func NewDefaultRetrySettings() *RetrySettings {
	return &RetrySettings{
		MaxAttempts:          3,
		InitialRetryDelay:    100 * time.Millisecond,
		RetryDelayMultiplier: 2.0,
		MaxRetryDelay:        5 * time.Second,
		InitialRPCTimeout:    10 * time.Second,
		RPCTimeoutMultiplier: 1.0,
		MaxRPCTimeout:        10 * time.Second,
		TotalTimeout:         30 * time.Second,
		Jittered:             true,
	}
}

// Validate checks retry settings values.
func (s *RetrySettings) Validate() error {
	if s == nil {
		return nil
	}

	if s.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be non-negative")
	}

	if s.InitialRetryDelay < 0 {
		return fmt.Errorf("initial retry delay must be non-negative")
	}

	if s.RetryDelayMultiplier < 1 {
		return fmt.Errorf("retry delay multiplier must be greater than or equal to 1")
	}

	if s.MaxRetryDelay < 0 {
		return fmt.Errorf("max retry delay must be non-negative")
	}

	if s.InitialRPCTimeout < 0 {
		return fmt.Errorf("initial rpc timeout must be non-negative")
	}

	if s.RPCTimeoutMultiplier < 1 {
		return fmt.Errorf("rpc timeout multiplier must be greater than or equal to 1")
	}

	if s.MaxRPCTimeout < 0 {
		return fmt.Errorf("max rpc timeout must be non-negative")
	}

	if s.TotalTimeout < 0 {
		return fmt.Errorf("total timeout must be non-negative")
	}

	return nil
}
