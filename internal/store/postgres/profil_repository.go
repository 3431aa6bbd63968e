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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/invexia/invexia/internal/identity"
	"github.com/invexia/invexia/internal/rbac"
	"github.com/invexia/invexia/internal/tenant"
)

// ProfilRepository implements identity.ProfilRepository and
// team.MemberRepository over the same table. Single-profil reads go by ID;
// listings always carry the tenant filter.
type ProfilRepository struct {
	db *DB
}

// NewProfilRepository creates a new profil repository
func NewProfilRepository(db *DB) *ProfilRepository {
	return &ProfilRepository{db: db}
}

const profilColumns = `id, entreprise_id, prenom, nom, avatar_url, telephone, poste,
	role, statut, derniere_connexion, created_at, updated_at`

func scanProfil(row pgx.Row) (*identity.Profil, error) {
	var p identity.Profil
	err := row.Scan(
		&p.ID, &p.EntrepriseID, &p.Prenom, &p.Nom, &p.AvatarURL,
		&p.Telephone, &p.Poste, &p.Role, &p.Statut,
		&p.DerniereConnexion, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new profil
func (r *ProfilRepository) Create(ctx context.Context, profil *identity.Profil) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO profils (id, entreprise_id, prenom, nom, avatar_url, telephone, poste,
			role, statut, derniere_connexion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		profil.ID, profil.EntrepriseID, profil.Prenom, profil.Nom,
		profil.AvatarURL, profil.Telephone, profil.Poste,
		profil.Role, profil.Statut, profil.DerniereConnexion, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profil: %w", err)
	}
	profil.CreatedAt = now
	profil.UpdatedAt = now
	return nil
}

// GetByID retrieves a profil by ID
func (r *ProfilRepository) GetByID(ctx context.Context, id string) (*identity.Profil, error) {
	profil, err := scanProfil(r.db.pool.QueryRow(ctx, `
		SELECT `+profilColumns+` FROM profils WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrProfilNotFound
		}
		return nil, fmt.Errorf("failed to query profil: %w", err)
	}
	return profil, nil
}

// Update updates the profile-editable fields
func (r *ProfilRepository) Update(ctx context.Context, profil *identity.Profil) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		UPDATE profils
		SET prenom = $2, nom = $3, avatar_url = $4, telephone = $5, poste = $6, updated_at = $7
		WHERE id = $1
	`, profil.ID, profil.Prenom, profil.Nom, profil.AvatarURL, profil.Telephone, profil.Poste, now)
	if err != nil {
		return fmt.Errorf("failed to update profil: %w", err)
	}
	profil.UpdatedAt = now
	return nil
}

// UpdateStatut changes a profil's lifecycle state
func (r *ProfilRepository) UpdateStatut(ctx context.Context, id string, statut identity.Statut) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE profils SET statut = $2, updated_at = now() WHERE id = $1
	`, id, statut)
	if err != nil {
		return fmt.Errorf("failed to update profil statut: %w", err)
	}
	return nil
}

// UpdateRole changes a profil's role
func (r *ProfilRepository) UpdateRole(ctx context.Context, id string, role rbac.Role) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE profils SET role = $2, updated_at = now() WHERE id = $1
	`, id, role)
	if err != nil {
		return fmt.Errorf("failed to update profil role: %w", err)
	}
	return nil
}

// AttachEntreprise binds a profil to its entreprise
func (r *ProfilRepository) AttachEntreprise(ctx context.Context, id, entrepriseID string) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE profils SET entreprise_id = $2, updated_at = now() WHERE id = $1
	`, id, entrepriseID)
	if err != nil {
		return fmt.Errorf("failed to attach entreprise: %w", err)
	}
	return nil
}

// TouchDerniereConnexion records a successful login time
func (r *ProfilRepository) TouchDerniereConnexion(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE profils SET derniere_connexion = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch derniere connexion: %w", err)
	}
	return nil
}

// List returns profils visible through the tenant filter
func (r *ProfilRepository) List(ctx context.Context, filter tenant.Filter, limit, offset int) ([]*identity.Profil, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	args = append(args, limit, offset)
	rows, err := r.db.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM profils
		WHERE %s
		ORDER BY nom, prenom
		LIMIT $%d OFFSET $%d
	`, profilColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profils: %w", err)
	}
	defer rows.Close()

	var profils []*identity.Profil
	for rows.Next() {
		profil, err := scanProfil(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profil: %w", err)
		}
		profils = append(profils, profil)
	}
	return profils, rows.Err()
}

// CountByRole counts profils per role within the tenant filter
func (r *ProfilRepository) CountByRole(ctx context.Context, filter tenant.Filter) (map[string]int, error) {
	clause, args := scopeClause(filter, "entreprise_id", 1)
	rows, err := r.db.pool.Query(ctx, `
		SELECT role, COUNT(*) FROM profils WHERE `+clause+` GROUP BY role
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count profils: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
