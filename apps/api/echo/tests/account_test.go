package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mawazo/shule/core/account"
	testutil "github.com/mawazo/shule/tests"
)

func Test_accountApi_register(t *testing.T) {
	app := setup(t)

	studentBody := func(email string) []byte {
		return []byte(`{
			"role": "STUDENT",
			"name": "Amani Botembe",
			"email": "` + email + `",
			"password": "secret1",
			"class_id": "class-5",
			"section": "A",
			"date_of_birth": "2010-04-21"
		}`)
	}

	tests := []httpTest{
		{
			name: "empty body", body: nil,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "malformed request body"}),
		},
		{
			name: "unknown role", body: []byte(`{"role": "SUPERUSER"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "missing required fields",
			body: []byte(`{"role": "TEACHER", "name": "Mwalimu Kazadi", "email": "kazadi@test.cd", "password": "secret1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"qualification": "this field is required",
				"department":    "this field is required",
			}),
		},
		{
			name: "short password",
			body: []byte(`{"role": "ADMIN", "name": "Admin One", "email": "admin@test.cd", "password": "ab1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 6 characters"}),
		},
		{name: "student created", body: studentBody("amani@test.cd"), wantCode: http.StatusCreated},
		{
			name: "duplicate email", body: studentBody("amani@test.cd"),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "an account with this email already exists"}),
		},
		{
			name: "duplicate email is case-insensitive", body: studentBody("AMANI@test.cd"),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "an account with this email already exists"}),
		},
		{name: "second student gets next roll", body: studentBody("bahati@test.cd"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/accounts/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code != http.StatusCreated {
				return
			}
			s := decodeSummary(t, rec)
			if s.Role != account.RoleStudent || s.Student == nil {
				t.Fatalf("summary = %+v, want student profile", s)
			}
			switch tt.name {
			case "student created":
				if s.Student.RollNumber != 1 {
					t.Errorf("RollNumber = %v, want 1", s.Student.RollNumber)
				}
			case "second student gets next roll":
				if s.Student.RollNumber != 2 {
					t.Errorf("RollNumber = %v, want 2", s.Student.RollNumber)
				}
			}
		})
	}
}

func Test_accountApi_login(t *testing.T) {
	app := setup(t)

	created := testutil.RegisterAccount(t, acctSvc, testutil.NewTeacherReg("Mwalimu Kazadi", "kazadi@test.cd", "secret1"))

	login := func(email, pwd string, role account.Role) []byte {
		return marchallObj(t, map[string]interface{}{"email": email, "password": pwd, "role": role})
	}

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
				"role":     "this field is required",
			}),
		},
		{
			name: "bad role", body: login("kazadi@test.cd", "secret1", "SUPERUSER"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "unknown email", body: login("nobody@test.cd", "secret1", account.RoleTeacher),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidCreds),
		},
		{
			name: "wrong role", body: login("kazadi@test.cd", "secret1", account.RoleStudent),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidCreds),
		},
		{
			name: "wrong password", body: login("kazadi@test.cd", "secret2", account.RoleTeacher),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidCreds),
		},
		{name: "ok", body: login("kazadi@test.cd", "secret1", account.RoleTeacher), wantCode: http.StatusOK},
		{name: "email is case-insensitive", body: login("KAZADI@test.cd", "secret1", account.RoleTeacher), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/accounts/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code != http.StatusOK {
				return
			}

			var res struct {
				User      account.Summary `json:"user"`
				Token     string          `json:"token"`
				ExpiresIn int64           `json:"expires_in"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			if res.User.ID != created.ID {
				t.Errorf("user.ID = %v, want %v", res.User.ID, created.ID)
			}
			if res.ExpiresIn != int64((24 * time.Hour).Seconds()) {
				t.Errorf("expires_in = %v", res.ExpiresIn)
			}
			if _, err := account.VerifyToken(res.Token, conf.SecretKey); err != nil {
				t.Errorf("VerifyToken(): %v", err)
			}

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == "auth_token" {
					cookie = c
				}
			}
			if cookie == nil {
				t.Fatal("auth_token cookie not set")
			}
			if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
				t.Errorf("cookie = %+v, want HttpOnly SameSite=Strict", cookie)
			}
			if cookie.Value != res.Token {
				t.Error("cookie value differs from response token")
			}
		})
	}
}

func Test_accountApi_me(t *testing.T) {
	app := setup(t)

	created := testutil.RegisterAccount(t, acctSvc, testutil.NewParentReg("Papa Wemba", "wemba@test.cd", "secret1"))
	token := getToken(t, created.ID, created.Email, created.Role)

	// issue an expired token
	account.NowFunc = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expiredToken := getToken(t, created.ID, created.Email, created.Role)
	account.NowFunc = time.Now // reset

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "expired token", token: expiredToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "unknown account", token: getToken(t, "no-such-id", "ghost@test.cd", account.RoleParent),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "ok", token: token, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/accounts/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code != http.StatusOK {
				return
			}
			s := decodeSummary(t, rec)
			if s.ID != created.ID || s.Parent == nil {
				t.Errorf("summary = %+v, want parent summary for %v", s, created.ID)
			}
		})
	}

	t.Run("cookie auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/accounts/me")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body %s", rec.Code, rec.Body.String())
		}
		if s := decodeSummary(t, rec); s.ID != created.ID {
			t.Errorf("summary.ID = %v, want %v", s.ID, created.ID)
		}
	})
}
