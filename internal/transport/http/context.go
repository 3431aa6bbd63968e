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

package http

import (
	"context"

	"github.com/invexia/invexia/internal/authz"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	sessionIDKey contextKey = "session_id"
)

// GetActor retrieves the authenticated actor from context. Nil when the
// request never passed AuthMiddleware.
func GetActor(ctx context.Context) *authz.Actor {
	if val, ok := ctx.Value(actorKey).(*authz.Actor); ok {
		return val
	}
	return nil
}

// GetSessionID retrieves the session ID from context. Empty for requests
// authenticated with a bearer token whose session was created elsewhere.
func GetSessionID(ctx context.Context) string {
	if val, ok := ctx.Value(sessionIDKey).(string); ok {
		return val
	}
	return ""
}

// withActor stores the resolved actor and session in the request context.
func withActor(ctx context.Context, actor *authz.Actor, sessionID string) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}
