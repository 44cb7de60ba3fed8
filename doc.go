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

// Package retry schedules retries of remote calls with exponential
// backoff: per-attempt delays, per-attempt rpc timeouts, and the
// decision when to stop retrying.
//
// The scheduling core is ExponentialAlgorithm. It performs no I/O and
// never sleeps; it only derives one immutable AttemptSettings value from
// the previous one. Executor is a ready-made loop on top of it for
// callers that do not need to drive the chain themselves.
package retry
