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

// Package journal persists audit events as tenant-scoped entries that can
// be listed, exported and purged under their own permissions.
package journal

import (
	"context"
	"time"

	"github.com/invexia/invexia/internal/tenant"
)

// Entry is a persisted audit event. IDs are ULIDs, so lexicographic order
// is creation order.
type Entry struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	EntrepriseID string         `json:"entreprise_id,omitempty"`
	ActorID      string         `json:"actor_id,omitempty"`
	Resource     string         `json:"resource,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Query narrows a listing beyond the mandatory tenant filter.
type Query struct {
	Type    string
	ActorID string
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}

// Repository defines persistence for audit entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter tenant.Filter, q Query) ([]*Entry, error)
	DeleteOlderThan(ctx context.Context, filter tenant.Filter, cutoff time.Time) (int64, error)
}
