package engine

import "github.com/diwanhq/murasalat/backend/internal/models"

// Actor is the authenticated caller as seen by the engine, built from the
// request's JWT claims.
type Actor struct {
	ID           string
	Role         models.Role
	DepartmentID *string
}

// ActorFromClaims converts JWT claims into an engine actor.
func ActorFromClaims(claims *models.JwtCustomClaims) Actor {
	return Actor{
		ID:           claims.UserID,
		Role:         claims.Role,
		DepartmentID: claims.DepartmentID,
	}
}
