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

// Package team manages the members of an entreprise: listing, invitations,
// role changes and suspension.
package team

import (
	"context"
	"errors"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/tenant"
)

// Domain errors
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrSelfTarget     = errors.New("cannot target your own account")
	ErrUnknownRole    = errors.New("unknown role")
)

// MemberRepository lists profils tenant-wide. Single-profil persistence
// stays in the identity package; only listing needs the scope filter.
type MemberRepository interface {
	List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*identity.Profil, error)
	CountByRole(ctx context.Context, filter tenant.Filter) (map[string]int, error)
}
