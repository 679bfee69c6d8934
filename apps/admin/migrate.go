package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/Heetpatel09/TimeWise-sub001/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db, database.MigrationsDir, arguments...)
}
