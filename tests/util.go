package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mawazo/shule/core"
	"github.com/mawazo/shule/core/account"
)

// Logger is a no-op core.Logger.
type Logger struct{}

var _ core.Logger = Logger{}

func (Logger) Debug(msg string, args ...interface{}) {}
func (Logger) Info(msg string, args ...interface{})  {}
func (Logger) Warn(msg string, args ...interface{})  {}
func (Logger) Error(msg string, args ...interface{}) {}
func (Logger) Fatal(msg string, args ...interface{}) {}

// NewConfig returns a config suitable for tests: min bcrypt cost and no
// external services.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Shule",
		Env:              "TEST",
		Debug:            true,
		TestMode:         true,
		SecretKey:        []byte("+c0ns1st3ntly-r4ndom/t3st#s3cr3t"),
		BcryptCost:       bcrypt.MinCost,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Shule", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			Host:               "localhost",
			Addr:               ":0",
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: 24 * time.Hour,
		},
		Database: core.DatabaseConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Registration builders. Only the required fields are set; tests override the
// rest as needed.

func NewStudentReg(name, email, pwd, classID, section string) *account.NewStudent {
	return &account.NewStudent{
		NewAccount:  account.NewAccount{Name: name, Email: email, Password: pwd},
		ClassID:     classID,
		Section:     section,
		DateOfBirth: "2010-04-21",
	}
}

func NewTeacherReg(name, email, pwd string) *account.NewTeacher {
	return &account.NewTeacher{
		NewAccount:    account.NewAccount{Name: name, Email: email, Password: pwd},
		Qualification: "B.Ed",
		Department:    "Mathematics",
	}
}

func NewParentReg(name, email, pwd string) *account.NewParent {
	return &account.NewParent{
		NewAccount: account.NewAccount{Name: name, Email: email, Password: pwd},
		Occupation: "Trader",
	}
}

func NewAdminReg(name, email, pwd string) *account.NewAdmin {
	return &account.NewAdmin{
		NewAccount: account.NewAccount{Name: name, Email: email, Password: pwd},
	}
}

// RegisterAccount runs a registration through the service and fails the test
// on error.
func RegisterAccount(t *testing.T, svc account.ServiceInterface, reg account.Registration) account.Summary {
	t.Helper()
	summary, err := svc.Register(context.Background(), reg)
	if err != nil {
		t.Fatalf("RegisterAccount(): %v", err)
	}
	return summary
}
