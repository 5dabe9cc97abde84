package services

import (
	"fmt"
	"time"

	"togethermiles-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenExpDays = 365

// TokenService signs and validates session tokens. The token carries the full
// session identity so the websocket endpoint and the HTTP middleware can
// rebuild it without a lookup.
type TokenService struct {
	secret string
}

// NewTokenService creates a new token service
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: secret}
}

// Generate signs a JWT for the session
func (s *TokenService) Generate(sess *models.Session) (string, error) {
	claims := jwt.MapClaims{
		"couple_id": sess.CoupleID,
		"username":  sess.Username,
		"nickname":  sess.Nickname,
		"role":      string(sess.Role),
		"exp":       time.Now().AddDate(0, 0, tokenExpDays).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses a token and rebuilds the session it carries
func (s *TokenService) Validate(tokenString string) (*models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	coupleID, _ := claims["couple_id"].(string)
	username, _ := claims["username"].(string)
	nickname, _ := claims["nickname"].(string)
	role, _ := claims["role"].(string)
	if coupleID == "" || nickname == "" {
		return nil, fmt.Errorf("session claims missing from token")
	}

	return &models.Session{
		CoupleID: coupleID,
		Username: username,
		Nickname: nickname,
		Role:     models.Role(role),
	}, nil
}
