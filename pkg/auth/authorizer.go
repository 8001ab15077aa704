package auth

import "github.com/google/uuid"

// Authorizer decides whether a principal may touch a resource owned by someone.
type Authorizer interface {
	IsAuthorized(userID, resourceOwnerID uuid.UUID) bool
}

// OwnerOnly allows access to the resource owner and nobody else.
type OwnerOnly struct{}

func (OwnerOnly) IsAuthorized(userID, resourceOwnerID uuid.UUID) bool {
	return userID != uuid.Nil && userID == resourceOwnerID
}
