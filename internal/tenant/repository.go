package tenant

import (
	"context"
	"errors"
)

var (
	ErrEntrepriseNotFound = errors.New("entreprise not found")
	ErrSlugTaken          = errors.New("entreprise slug already taken")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrInvalidStatus      = errors.New("invalid statut")
)

// Repository defines the interface for entreprise storage. List takes the
// caller's scope filter: a tenant user listing entreprises only ever sees
// their own.
type Repository interface {
	Create(ctx context.Context, entreprise *Entreprise) error
	GetByID(ctx context.Context, id string) (*Entreprise, error)
	GetBySlug(ctx context.Context, slug string) (*Entreprise, error)
	Update(ctx context.Context, entreprise *Entreprise) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entreprise, error)
}
