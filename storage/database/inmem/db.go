package inmemdb

import (
	"sync"

	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

// DB is a process-local store. Tables share one lock: deleting a subject also rewrites teachers.
type DB struct {
	sync.RWMutex

	subjects   map[string]*roster.Subject
	sections   map[string]*roster.Section
	teachers   map[string]*roster.Teacher
	allotments []allocation.Allotment
}

func Open() (*DB, error) {
	db := &DB{
		subjects: make(map[string]*roster.Subject),
		sections: make(map[string]*roster.Section),
		teachers: make(map[string]*roster.Teacher),
	}
	return db, nil
}
