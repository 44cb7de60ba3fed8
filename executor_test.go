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
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func executorTestSettings(maxAttempts int) RetrySettings {
	return RetrySettings{
		MaxAttempts:          maxAttempts,
		InitialRetryDelay:    1 * time.Millisecond,
		RetryDelayMultiplier: 2.0,
		MaxRetryDelay:        5 * time.Millisecond,
		InitialRPCTimeout:    1 * time.Second,
		RPCTimeoutMultiplier: 1.0,
		MaxRPCTimeout:        1 * time.Second,
		TotalTimeout:         10 * time.Second,
		Jittered:             false,
	}
}

func newTestExecutor(t *testing.T, settings RetrySettings, classifier Classifier) *Executor {
	t.Helper()

	algorithm, err := NewExponentialAlgorithm(&settings, nil)
	require.NoError(t, err)

	return NewExecutor(algorithm, classifier, nil)
}

func TestExecutor_Do(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		settings      RetrySettings
		operation     func() (callCount *int, operation func(ctx context.Context) error)
		wantErr       bool
		wantCallCount int
	}{
		{
			name:     "success on first attempt",
			settings: executorTestSettings(3),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					return nil
				}
			},
			wantErr:       false,
			wantCallCount: 1,
		},
		{
			name:     "success on second attempt",
			settings: executorTestSettings(3),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					if count < 2 {
						return errors.New("temporary error")
					}
					return nil
				}
			},
			wantErr:       false,
			wantCallCount: 2,
		},
		{
			name:     "success on third attempt",
			settings: executorTestSettings(3),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					if count < 3 {
						return errors.New("temporary error")
					}
					return nil
				}
			},
			wantErr:       false,
			wantCallCount: 3,
		},
		{
			name:     "all attempts fail",
			settings: executorTestSettings(2),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					return errors.New("persistent error")
				}
			},
			wantErr:       true,
			wantCallCount: 2,
		},
		{
			name:     "single attempt without retries",
			settings: executorTestSettings(1),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					return errors.New("error on first attempt")
				}
			},
			wantErr:       true,
			wantCallCount: 1,
		},
		{
			name:     "non-retryable error stops the loop",
			settings: executorTestSettings(5),
			operation: func() (*int, func(ctx context.Context) error) {
				count := 0
				return &count, func(context.Context) error {
					count++
					return NonRetryable(errors.New("bad request"))
				}
			},
			wantErr:       true,
			wantCallCount: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			executor := newTestExecutor(t, tt.settings, nil)
			callCount, operation := tt.operation()

			err := executor.Do(context.Background(), operation)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tt.wantCallCount, *callCount)
		})
	}
}

func TestExecutor_Do_Classifier(t *testing.T) {
	t.Parallel()

	t.Run("Classifier rejection stops the loop", func(t *testing.T) {
		t.Parallel()

		fatal := errors.New("fatal error")
		executor := newTestExecutor(t, executorTestSettings(5), func(err error) bool {
			return !errors.Is(err, fatal)
		})

		callCount := 0
		err := executor.Do(context.Background(), func(context.Context) error {
			callCount++
			return fatal
		})

		require.ErrorIs(t, err, fatal)
		require.Equal(t, 1, callCount)
	})

	t.Run("Classifier acceptance keeps retrying", func(t *testing.T) {
		t.Parallel()

		transient := errors.New("transient error")
		executor := newTestExecutor(t, executorTestSettings(3), func(err error) bool {
			return errors.Is(err, transient)
		})

		callCount := 0
		err := executor.Do(context.Background(), func(context.Context) error {
			callCount++
			return transient
		})

		require.Error(t, err)
		require.Equal(t, 3, callCount)
	})
}

func TestExecutor_Do_ErrorMessages(t *testing.T) {
	t.Parallel()

	t.Run("Error message contains attempt count", func(t *testing.T) {
		t.Parallel()

		executor := newTestExecutor(t, executorTestSettings(2), nil)

		err := executor.Do(context.Background(), func(context.Context) error {
			return errors.New("test error")
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed after 2 attempt(s)")
		require.Contains(t, err.Error(), "test error")
	})

	t.Run("Context error is joined with last operation error", func(t *testing.T) {
		t.Parallel()

		settings := executorTestSettings(5)
		settings.InitialRetryDelay = 100 * time.Millisecond
		settings.MaxRetryDelay = 1 * time.Second
		executor := newTestExecutor(t, settings, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := executor.Do(ctx, func(context.Context) error {
			return errors.New("operation error")
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "context deadline exceeded")
		require.Contains(t, err.Error(), "operation error")
	})
}

func TestExecutor_Do_RPCTimeout(t *testing.T) {
	t.Parallel()

	t.Run("Each attempt carries its timeout", func(t *testing.T) {
		t.Parallel()

		settings := executorTestSettings(1)
		executor := newTestExecutor(t, settings, nil)

		err := executor.Do(context.Background(), func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			require.LessOrEqual(t, time.Until(deadline), settings.InitialRPCTimeout)

			return nil
		})

		require.NoError(t, err)
	})

	t.Run("Zero timeout leaves the context untouched", func(t *testing.T) {
		t.Parallel()

		settings := executorTestSettings(1)
		settings.InitialRPCTimeout = 0
		settings.MaxRPCTimeout = 0
		executor := newTestExecutor(t, settings, nil)

		err := executor.Do(context.Background(), func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			require.False(t, ok)

			return nil
		})

		require.NoError(t, err)
	})
}

func TestExecutor_Do_WithLogger(t *testing.T) {
	t.Parallel()

	t.Run("Logs do not panic with an attached logger", func(t *testing.T) {
		t.Parallel()

		settings := executorTestSettings(2)
		algorithm, err := NewExponentialAlgorithm(&settings, nil)
		require.NoError(t, err)

		executor := NewExecutor(algorithm, nil, slog.Default())

		err = executor.Do(context.Background(), func(context.Context) error {
			return errors.New("logged error")
		})

		require.Error(t, err)
	})
}

func TestDoWithValue(t *testing.T) {
	t.Parallel()

	t.Run("Returns the value on success", func(t *testing.T) {
		t.Parallel()

		executor := newTestExecutor(t, executorTestSettings(3), nil)

		callCount := 0
		got, err := DoWithValue(context.Background(), executor, func(context.Context) (string, error) {
			callCount++
			if callCount < 2 {
				return "", errors.New("temporary error")
			}
			return "value", nil
		})

		require.NoError(t, err)
		require.Equal(t, "value", got)
		require.Equal(t, 2, callCount)
	})

	t.Run("Returns last value on exhaustion", func(t *testing.T) {
		t.Parallel()

		executor := newTestExecutor(t, executorTestSettings(2), nil)

		got, err := DoWithValue(context.Background(), executor, func(context.Context) (int, error) {
			return 42, errors.New("persistent error")
		})

		require.Error(t, err)
		require.Equal(t, 42, got)
	})
}

func TestExecutor_Do_ThreadSafety(t *testing.T) {
	t.Parallel()

	executor := newTestExecutor(t, executorTestSettings(3), nil)

	g := errgroup.Group{}
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			callCount := 0

			return executor.Do(context.Background(), func(context.Context) error {
				callCount++
				if callCount < 2 {
					return errors.New("temporary error")
				}
				return nil
			})
		})
	}

	require.NoError(t, g.Wait())
}
