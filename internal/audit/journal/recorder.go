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

package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/invexia/invexia/internal/audit"
	"github.com/invexia/invexia/internal/id"
	"github.com/invexia/invexia/internal/observability/logger"
)

// Recorder implements audit.Logger by persisting entries and forwarding the
// event to the next logger. Persistence is best effort: a store failure must
// not fail the operation being audited, so it is logged and swallowed.
type Recorder struct {
	repo Repository
	next audit.Logger
}

// NewRecorder creates a persisting audit logger.
func NewRecorder(repo Repository, next audit.Logger) *Recorder {
	return &Recorder{repo: repo, next: next}
}

// Log records the event.
func (r *Recorder) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	entry := &Entry{
		ID:           id.NewULID(),
		Type:         event.Type,
		EntrepriseID: event.EntrepriseID,
		ActorID:      event.ActorID,
		Resource:     event.Resource,
		Metadata:     event.Metadata,
		IPAddress:    event.IPAddress,
		UserAgent:    event.UserAgent,
		CreatedAt:    event.Timestamp,
	}
	if err := r.repo.Insert(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to persist audit entry",
			slog.String("audit_type", event.Type), logger.Error(err))
	}

	if r.next != nil {
		r.next.Log(ctx, event)
	}
}
