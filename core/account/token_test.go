package account

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/mawazo/shule/core"
)

func TestIssueVerifyToken(t *testing.T) {
	conf := &core.Config{
		AppName: "Shule",
		Server:  core.ServerConfig{JWTExpirationDelta: 24 * time.Hour},
	}
	secret := []byte("secret")
	acct := Account{ID: "acct-01", Email: "t@test.cd", Role: RoleTeacher}

	validToken, err := IssueToken(NewClaims(acct, conf), secret)
	if err != nil {
		t.Fatalf("IssueToken(): %v", err)
	}

	// generate an expired token
	NowFunc = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expiredToken, err := IssueToken(NewClaims(acct, conf), secret)
	NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("IssueToken(): %v", err)
	}

	// generate a token signed with another key
	foreignToken, err := IssueToken(NewClaims(acct, conf), []byte("not-the-secret"))
	if err != nil {
		t.Fatalf("IssueToken(): %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", wantErr: ErrTokenMalformed},
		{name: "garbage token", token: "lmaooolol", wantErr: ErrTokenMalformed},
		{name: "invalid signature", token: foreignToken, wantErr: ErrTokenSignature},
		{name: "expired token", token: expiredToken, wantErr: ErrTokenExpired},
		{name: "valid token", token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyToken(tt.token, secret)

			if tt.wantErr != nil {
				authErr, ok := errors.Cause(err).(*core.AuthError)
				if !ok {
					t.Fatalf("VerifyToken() error = %v, want *core.AuthError", err)
				}
				if authErr.Err != tt.wantErr {
					t.Errorf("VerifyToken() error = %v, wantErr %v", authErr.Err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("VerifyToken(): %v", err)
			}
			if claims.Subject != acct.ID {
				t.Errorf("claims.Subject = %v, want %v", claims.Subject, acct.ID)
			}
			if claims.Email != acct.Email {
				t.Errorf("claims.Email = %v, want %v", claims.Email, acct.Email)
			}
			if claims.Role != acct.Role {
				t.Errorf("claims.Role = %v, want %v", claims.Role, acct.Role)
			}
			if claims.Issuer != conf.AppName {
				t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, conf.AppName)
			}
		})
	}
}
