package usecase

import (
	"fleet-match/internal/pkg/jwt"

	"github.com/google/uuid"
)

// TokenValidator resolves a bearer token to the opaque actor identity the
// engine consumes. Tokens are minted by the identity collaborator; this
// service only validates them.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, string, error)
}

type jwtTokenValidator struct {
	service *jwt.Service
}

func NewTokenValidator(service *jwt.Service) TokenValidator {
	return &jwtTokenValidator{service: service}
}

func (v *jwtTokenValidator) ValidateToken(token string) (uuid.UUID, string, error) {
	claims, err := v.service.ValidateToken(token)
	if err != nil {
		return uuid.Nil, "", err
	}
	return claims.ActorID, claims.Role, nil
}
