package account

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/mawazo/shule/core"
)

var (
	NowFunc = time.Now // mockable

	// token verification errors; always delivered wrapped in core.AuthError
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

func NewClaims(acct Account, conf *core.Config) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   acct.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: acct.Email,
		Role:  acct.Role,
	}
}

// IssueToken generates a signed JWT token string representing the Claims.
// The signing secret is fixed at process start; there is no runtime rotation.
func IssueToken(claims *Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// VerifyToken parses and checks a token string, returning its Claims.
// Failures come back as core.AuthError wrapping ErrTokenExpired,
// ErrTokenMalformed or ErrTokenSignature.
func VerifyToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return secret, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok {
			switch {
			case vErr.Errors&jwt.ValidationErrorExpired != 0:
				return nil, core.NewAuthError(ErrTokenExpired)
			case vErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, core.NewAuthError(ErrTokenSignature)
			}
		}
		return nil, core.NewAuthError(ErrTokenMalformed)
	}
	if !token.Valid {
		return nil, core.NewAuthError(ErrTokenMalformed)
	}
	return claims, nil
}
