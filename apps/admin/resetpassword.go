package main

import (
	"context"

	"github.com/mawazo/shule/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	acct, err := cli.svc.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	return cli.svc.SetPassword(ctx, acct, pwd)
}
