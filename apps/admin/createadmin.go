package main

import (
	"context"

	"github.com/mawazo/shule/core/account"
)

// createAdmin registers an administrator account through the regular
// registration pipeline so it gets the same validation and profile as one
// created via the API.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	reg := &account.NewAdmin{
		NewAccount: account.NewAccount{
			Name:     name,
			Email:    email,
			Password: pwd,
		},
	}
	if err := account.ValidateRegistration(reg, cli.validate); err != nil {
		return err
	}
	_, err := cli.svc.Register(context.Background(), reg)
	return err
}
