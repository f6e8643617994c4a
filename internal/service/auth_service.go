package service

import (
	"context"
	"errors"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/pkg/jwt"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
}

type LoginResponse struct {
	Token string              `json:"token"`
	User  model.ActorResponse `json:"user"`
}

type authService struct {
	actors repository.ActorRepository
	issuer *jwt.Issuer
	log    zerolog.Logger
}

func NewAuthService(actors repository.ActorRepository, issuer *jwt.Issuer, log zerolog.Logger) AuthService {
	return &authService{actors: actors, issuer: issuer, log: log}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	// 1. Find actor by username
	actor, err := s.actors.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if actor is active
	if !actor.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !actor.CheckPassword(password) {
		s.log.Warn().Str("username", username).Msg("login failed")
		return nil, ErrInvalidCredentials
	}

	// 4. Generate JWT token
	token, err := s.issuer.GenerateToken(actor.ID, actor.Username, string(actor.Role))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info().Str("username", actor.Username).Str("role", string(actor.Role)).Msg("actor logged in")
	return &LoginResponse{Token: token, User: actor.ToResponse()}, nil
}
