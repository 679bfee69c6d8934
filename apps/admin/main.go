package main

import (
	"database/sql"
	"log"
	"math/rand"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
	logsvc "github.com/Heetpatel09/TimeWise-sub001/services/logger"
	"github.com/Heetpatel09/TimeWise-sub001/storage"
	"github.com/Heetpatel09/TimeWise-sub001/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	cli := commandLine{
		conf:     conf,
		logger:   logger,
		out:      os.Stdout,
		validate: validate,
		openDB: func() (*sql.DB, error) {
			if conf.Storage.Driver != core.StoragePostgres {
				return nil, errors.Errorf("migrations need the %q storage driver (got %q)", core.StoragePostgres, conf.Storage.Driver)
			}
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}

	closeStores := func() error { return nil }

	// migrations manage the schema themselves; everything else works on the configured store
	if len(os.Args) > 1 && os.Args[1] != "migrate" {
		stores, err := storage.Open(conf)
		if err != nil {
			logger.Fatal("opening storage", err)
		}
		closeStores = stores.Close

		var src rand.Source
		if conf.Allocation.Seed != 0 {
			src = rand.NewSource(conf.Allocation.Seed)
		}
		cli.rosterSvc = roster.NewService(stores.Roster)
		cli.allocSvc = allocation.NewService(
			stores.Roster,
			stores.Allotments,
			allocation.NewAllocator(src),
			logger,
			nil, /* metrics */
		)
	}

	err := cli.run(os.Args)
	if cErr := closeStores(); cErr != nil {
		logger.Error("closing storage", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
