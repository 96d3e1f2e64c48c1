package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mawazo/shule/core"
	"github.com/mawazo/shule/core/account"
	emailsvc "github.com/mawazo/shule/services/email"
	inmemdb "github.com/mawazo/shule/storage/database/inmem"
	testutil "github.com/mawazo/shule/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := testutil.NewConfig()
	repo := inmemdb.NewAccountRepository()
	svc := account.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	return &commandLine{
		svc:      svc,
		validate: validate,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	var gotArgs []string
	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		gotCommand = command
		gotArgs = args
		return nil
	}

	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantArgs    []string
	}{
		{name: "defaults to up", args: []string{"migrate"}, wantCommand: "up"},
		{name: "status", args: []string{"migrate", "status"}, wantCommand: "status"},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, wantCommand: "up-to", wantArgs: []string{"2"}},
		{name: "down", args: []string{"migrate", "down"}, wantCommand: "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"admin"}, tt.args...)
			if err := cli.run(args); err != nil {
				t.Fatalf("run(): %v", err)
			}
			if gotCommand != tt.wantCommand {
				t.Errorf("command = %q, want %q", gotCommand, tt.wantCommand)
			}
			if len(gotArgs) != len(tt.wantArgs) {
				t.Errorf("args = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "createadmin: missing flags", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "createadmin: missing email", args: []string{"createadmin", "-name", "Admin One"}, wantErr: errHelp},
		{name: "createadmin: empty password", args: []string{"createadmin", "-name", "Admin One", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "createadmin: ok", args: []string{"createadmin", "-name", "Admin One", "-email", "admin@test.cd"}, pwd: "secret1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

			args := append([]string{"admin"}, tt.args...)
			if err := cli.run(args); err != tt.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the created admin can authenticate
	summary, _, err := cli.svc.Authenticate(context.Background(), "admin@test.cd", "secret1", account.RoleAdmin)
	if err != nil {
		t.Fatalf("Authenticate(): %v", err)
	}
	if summary.Admin == nil || summary.Admin.Department != account.AdminDepartment {
		t.Errorf("summary = %+v, want admin profile", summary)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	testutil.RegisterAccount(t, cli.svc, testutil.NewTeacherReg("Mwalimu Kazadi", "kazadi@test.cd", "secret1"))

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3w-secret"), nil }
	if err := cli.run([]string{"admin", "resetpassword", "-email", "kazadi@test.cd"}); err != nil {
		t.Fatalf("run(): %v", err)
	}

	ctx := context.Background()
	if _, _, err := cli.svc.Authenticate(ctx, "kazadi@test.cd", "secret1", account.RoleTeacher); err == nil {
		t.Error("Authenticate() with old password succeeded")
	}
	if _, _, err := cli.svc.Authenticate(ctx, "kazadi@test.cd", "n3w-secret", account.RoleTeacher); err != nil {
		t.Errorf("Authenticate() with new password: %v", err)
	}

	// unknown account
	if err := cli.run([]string{"admin", "resetpassword", "-email", "ghost@test.cd"}); err == nil {
		t.Error("run() error = nil, want error")
	}
}
