// Copyright 2026 The Invexia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package authz is the server-side security boundary. Every service
// operation re-validates here regardless of what a client claimed or what a
// UI guard displayed.
package authz

import "errors"

var (
	// ErrUnauthenticated means no valid session was presented. Clients
	// redirect to the authentication entry point.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrProfileNotProvisioned means the session is valid but the profil
	// row does not exist yet. Recoverable by retrying, never a denial.
	ErrProfileNotProvisioned = errors.New("profile not provisioned")

	// ErrPermissionDenied means the role lacks the required permission.
	// Expected traffic, audited but not a system fault.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTenantMismatch means a non-admin targeted another entreprise's
	// data. Either a bug or a probe, audited under its own event type.
	ErrTenantMismatch = errors.New("tenant mismatch")

	// ErrTransientResolution means identity could not be resolved because
	// of a backing-store failure. Retryable and never coerced to
	// ErrUnauthenticated.
	ErrTransientResolution = errors.New("transient resolution failure")
)
