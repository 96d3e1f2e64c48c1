package main

import (
	"github.com/mawazo/shule/storage/database"
)

var gooseRunFunc = database.RunGoose // mockable

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	var rest []string
	if len(args) > 0 {
		command = args[0]
		rest = args[1:]
	}
	return gooseRunFunc(command, cli.db, rest...)
}
