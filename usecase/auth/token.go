package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/taskdeck/backend/domain"
)

// TokenIssuer mints the bearer tokens that reference a server-side session.
type TokenIssuer struct {
	secret []byte
	issuer string
}

func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Issue signs a token bound to the session and its owner. The token
// expires with the session.
func (i *TokenIssuer) Issue(session *domain.Session) (string, error) {
	if session == nil {
		return "", domain.ErrInvalidPayload
	}
	claims := jwt.MapClaims{
		"user_id":    session.UserID,
		"session_id": session.ID,
		"iss":        i.issuer,
		"iat":        time.Now().Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
