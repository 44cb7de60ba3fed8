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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aerospike/retry-go/logging"
)

// Classifier decides whether a failed attempt may be retried.
// It receives the error returned by the operation.
type Classifier func(err error) bool

// Executor runs an operation under an ExponentialAlgorithm: it applies
// the per-attempt timeout, sleeps the computed delay between attempts,
// and stops when the algorithm reports the attempts are exhausted.
//
// Error classification stays outside the algorithm. The executor asks
// the injected classifier; when none is given every error is considered
// retryable. An operation can also mark an error with NonRetryable to
// stop the loop unconditionally.
type Executor struct {
	algorithm  *ExponentialAlgorithm
	classifier Classifier
	logger     *slog.Logger
}

// NewExecutor returns an executor for the given algorithm.
// classifier may be nil, in which case every error is retryable.
// logger may be nil, in which case nothing is logged.
func NewExecutor(algorithm *ExponentialAlgorithm, classifier Classifier, logger *slog.Logger) *Executor {
	if logger != nil {
		id := uuid.NewString()
		logger = logging.WithExecutor(logger, id)
	}

	return &Executor{
		algorithm:  algorithm,
		classifier: classifier,
		logger:     logger,
	}
}

// Do runs operation until it succeeds, an error is classified as
// non-retryable, the context is canceled, or the attempts are exhausted.
// Each invocation receives a context carrying that attempt's timeout.
// On exhaustion the last operation error is returned, wrapped with the
// number of attempts performed.
func (e *Executor) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	attempt := e.algorithm.CreateFirstAttempt()

	for {
		err := e.runAttempt(ctx, attempt, operation)
		if err == nil {
			return nil
		}

		if IsNonRetryable(err) {
			return err
		}

		if e.classifier != nil && !e.classifier(err) {
			return err
		}

		next := e.algorithm.CreateNextAttempt(attempt)
		if !e.algorithm.ShouldRetry(next) {
			return fmt.Errorf("failed after %d attempt(s): %w", attempt.OverallAttemptCount+1, err)
		}

		if e.logger != nil {
			e.logger.Debug("retrying operation",
				slog.Int("attempt", next.AttemptCount),
				slog.Duration("delay", next.RandomizedRetryDelay),
				slog.Duration("rpcTimeout", next.RPCTimeout),
				slog.Any("err", err),
			)
		}

		if sErr := sleep(ctx, next.RandomizedRetryDelay); sErr != nil {
			return errors.Join(sErr, err)
		}

		attempt = next
	}
}

// runAttempt invokes the operation with this attempt's timeout applied.
func (e *Executor) runAttempt(
	ctx context.Context, attempt AttemptSettings, operation func(ctx context.Context) error,
) error {
	if attempt.RPCTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, attempt.RPCTimeout)
		defer cancel()
	}

	return operation(ctx)
}

// DoWithValue runs operation under executor and returns its value once
// it succeeds.
func DoWithValue[T any](ctx context.Context, executor *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := executor.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)

		return opErr
	})

	return result, err
}

// sleep waits for the given duration honoring context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
