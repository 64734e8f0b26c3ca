package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

const controllerTokenTTL = 24 * time.Hour

// Identity is the caller resolved from a bearer token.
type Identity struct {
	Subject       string
	Role          realtime.Role
	SessionID     uint
	ParticipantID uint
	DisplayName   string
}

func (i *Identity) IsController() bool { return i.Role == realtime.RoleController }

type identityClaims struct {
	Role          realtime.Role `json:"role"`
	SessionID     uint          `json:"sid,omitempty"`
	ParticipantID uint          `json:"pid,omitempty"`
	DisplayName   string        `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AuthService issues and validates identity tokens. Credential checks
// belong to the external identity provider; controllers arrive with a
// subject already established.
type AuthService struct {
	jwtSecret      []byte
	participantTTL time.Duration
}

func NewAuthService(jwtSecret string, participantTTL time.Duration) *AuthService {
	if participantTTL <= 0 {
		participantTTL = 12 * time.Hour
	}
	return &AuthService{jwtSecret: []byte(jwtSecret), participantTTL: participantTTL}
}

func (s *AuthService) IssueControllerToken(controllerID string) (string, error) {
	if controllerID == "" {
		return "", apperr.New(apperr.CodeInvalidArgument, "controller id is required")
	}
	return s.sign(identityClaims{
		Role: realtime.RoleController,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   controllerID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(controllerTokenTTL)),
		},
	})
}

func (s *AuthService) IssueParticipantToken(p *models.Participant) (string, error) {
	return s.sign(identityClaims{
		Role:          realtime.RoleParticipant,
		SessionID:     p.SessionID,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.participantTTL)),
		},
	})
}

func (s *AuthService) sign(claims identityClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "invalid or expired token", err)
	}

	switch claims.Role {
	case realtime.RoleController:
		if claims.Subject == "" {
			return nil, apperr.New(apperr.CodeUnauthenticated, "token has no subject")
		}
	case realtime.RoleParticipant:
		if claims.SessionID == 0 || claims.ParticipantID == 0 {
			return nil, apperr.New(apperr.CodeUnauthenticated, "participant token is missing its session binding")
		}
	default:
		return nil, apperr.New(apperr.CodeUnauthenticated, "unknown role in token")
	}

	return &Identity{
		Subject:       claims.Subject,
		Role:          claims.Role,
		SessionID:     claims.SessionID,
		ParticipantID: claims.ParticipantID,
		DisplayName:   claims.DisplayName,
	}, nil
}
