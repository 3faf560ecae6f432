package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is what the engine reads from an access token. Tokens are issued by
// the HR core service with the same secret; GenerateAccessToken exists for
// tooling and tests.
type Claims struct {
	UserID     string
	EmployeeID *string
	IsAdmin    bool
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	ParseAccessToken(tokenString string) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration, skew time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(skew)),
	}
}

func (j *JWTService) GenerateAccessToken(c Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":     c.UserID,
		"employee_id": returnValueOrNil(c.EmployeeID),
		"is_admin":    c.IsAdmin,
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseAccessToken verifies the signature and expiry and returns the claims.
func (j *JWTService) ParseAccessToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, err
	}

	if tokenType, ok := token.Get("type"); !ok || tokenType != "access" {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	raw, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, fmt.Errorf("read token claims: %w", err)
	}
	return ClaimsFromMap(raw), nil
}

// ClaimsFromMap reads Claims out of a decoded claim set, as handed out by
// jwtauth.FromContext.
func ClaimsFromMap(m map[string]interface{}) Claims {
	var c Claims
	c.UserID, _ = m["user_id"].(string)
	if id, ok := m["employee_id"].(string); ok && id != "" {
		c.EmployeeID = &id
	}
	c.IsAdmin, _ = m["is_admin"].(bool)
	return c
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	} else {
		return *value
	}
}
