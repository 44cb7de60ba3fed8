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
	"math"
	"math/rand"
	"sync"
	"time"
)

// RandSource draws a uniform random value in [0, max].
// It is pluggable so tests can pin the jitter draw.
type RandSource func(max int64) int64

// ExponentialAlgorithm computes the schedule of attempts for a remote
// call: the delay before each attempt, the per-attempt timeout, and
// whether another attempt is allowed at all.
//
// The algorithm holds no per-call state. Each logical call drives its own
// chain of AttemptSettings values, so one algorithm can serve any number
// of concurrent calls.
type ExponentialAlgorithm struct {
	settings *RetrySettings
	clock    Clock
	rnd      RandSource
}

// NewExponentialAlgorithm returns an algorithm for the given settings.
// If settings is nil, default settings are used. If clock is nil, the
// system clock is used.
func NewExponentialAlgorithm(settings *RetrySettings, clock Clock) (*ExponentialAlgorithm, error) {
	if settings == nil {
		settings = NewDefaultRetrySettings()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if clock == nil {
		clock = SystemClock()
	}

	return &ExponentialAlgorithm{
		settings: settings,
		clock:    clock,
		rnd:      defaultRandSource,
	}, nil
}

// Settings returns the settings the algorithm was created with.
func (e *ExponentialAlgorithm) Settings() *RetrySettings {
	return e.settings
}

// CreateFirstAttempt returns the settings for the first attempt.
// The first attempt is issued immediately, with the initial rpc timeout
// capped at the maximum.
func (e *ExponentialAlgorithm) CreateFirstAttempt() AttemptSettings {
	return AttemptSettings{
		AttemptCount:          0,
		OverallAttemptCount:   0,
		FirstAttemptStartTime: e.clock.Now(),
		RetryDelay:            0,
		RandomizedRetryDelay:  0,
		RPCTimeout:            minDuration(e.settings.InitialRPCTimeout, e.settings.MaxRPCTimeout),
	}
}

// CreateNextAttempt derives the settings for the attempt following
// previous. The nominal delay grows by RetryDelayMultiplier up to
// MaxRetryDelay, the rpc timeout grows by RPCTimeoutMultiplier up to
// MaxRPCTimeout. previous is not modified.
func (e *ExponentialAlgorithm) CreateNextAttempt(previous AttemptSettings) AttemptSettings {
	// A reset attempt count restarts the backoff at the initial delay.
	delay := e.settings.InitialRetryDelay
	if previous.AttemptCount > 0 && previous.RetryDelay > 0 {
		delay = multiplyDuration(previous.RetryDelay, e.settings.RetryDelayMultiplier)
	}

	delay = minDuration(delay, e.settings.MaxRetryDelay)

	randomized := delay
	if e.settings.Jittered && delay > 0 {
		// Uniform over [0, delay]. Averaged over many attempts the
		// applied delay is half the nominal one.
		randomized = time.Duration(e.rnd(int64(delay)))
	}

	timeout := minDuration(
		multiplyDuration(previous.RPCTimeout, e.settings.RPCTimeoutMultiplier),
		e.settings.MaxRPCTimeout,
	)

	return AttemptSettings{
		AttemptCount:          previous.AttemptCount + 1,
		OverallAttemptCount:   previous.OverallAttemptCount + 1,
		FirstAttemptStartTime: previous.FirstAttemptStartTime,
		RetryDelay:            delay,
		RandomizedRetryDelay:  randomized,
		RPCTimeout:            timeout,
	}
}

// ShouldRetry reports whether the attempt described by current may be
// issued. It returns false once the attempt cap is reached, or once the
// time elapsed since the first attempt has consumed the total timeout.
func (e *ExponentialAlgorithm) ShouldRetry(current AttemptSettings) bool {
	if e.settings.MaxAttempts > 0 && current.AttemptCount >= e.settings.MaxAttempts {
		return false
	}

	if e.settings.TotalTimeout > 0 &&
		e.clock.Now().Sub(current.FirstAttemptStartTime) >= e.settings.TotalTimeout {
		return false
	}

	return true
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}

	return b
}

// multiplyDuration scales d by m, saturating instead of overflowing.
func multiplyDuration(d time.Duration, m float64) time.Duration {
	product := float64(d) * m
	if product >= float64(math.MaxInt64) {
		return math.MaxInt64
	}

	return time.Duration(product)
}

var (
	// Thread-safe random source for jitter.
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func defaultRandSource(max int64) int64 {
	if max <= 0 {
		return 0
	}

	randMu.Lock()
	defer randMu.Unlock()

	if max == math.MaxInt64 {
		return randSource.Int63()
	}

	return randSource.Int63n(max + 1)
}
