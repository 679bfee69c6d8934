package storage

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
	boltdb "github.com/Heetpatel09/TimeWise-sub001/storage/bolt"
	"github.com/Heetpatel09/TimeWise-sub001/storage/database"
	inmemdb "github.com/Heetpatel09/TimeWise-sub001/storage/database/inmem"
	sqlxrepos "github.com/Heetpatel09/TimeWise-sub001/storage/database/sqlx"
)

// Stores holds the repositories of the configured backend.
type Stores struct {
	Roster     roster.Repository
	Allotments allocation.Repository
	close      func() error
}

// Close releases the backend.
func (s Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open sets up the backend named by conf.Storage.Driver.
func Open(conf *core.Config) (Stores, error) {
	switch conf.Storage.Driver {
	case core.StoragePostgres:
		db, err := database.Setup(conf)
		if err != nil {
			return Stores{}, errors.Wrap(err, "setting up database")
		}
		return Stores{
			Roster:     sqlxrepos.NewRosterRepository(db),
			Allotments: sqlxrepos.NewAllotmentRepository(db),
			close:      db.Close,
		}, nil

	case core.StorageBolt:
		path := conf.Storage.BoltPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(conf.WorkDir, path)
		}
		db, err := boltdb.Open(path)
		if err != nil {
			return Stores{}, errors.Wrap(err, "opening bolt store")
		}
		return Stores{
			Roster:     boltdb.NewRosterRepository(db),
			Allotments: boltdb.NewAllotmentRepository(db),
			close:      db.Close,
		}, nil

	case core.StorageMemory, "":
		db, err := inmemdb.Open()
		if err != nil {
			return Stores{}, errors.Wrap(err, "opening in-memory store")
		}
		return Stores{
			Roster:     inmemdb.NewRosterRepository(db),
			Allotments: inmemdb.NewAllotmentRepository(db),
		}, nil
	}
	return Stores{}, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
