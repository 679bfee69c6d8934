package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

func CreateSubject(t *testing.T, repo roster.Repository, name string, createdAt ...time.Time) roster.Subject {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	subj, err := repo.CreateSubject(context.Background(), roster.Subject{Name: name, CreatedAt: tstamp, UpdatedAt: tstamp})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return subj
}

func CreateSection(t *testing.T, repo roster.Repository, name string, createdAt ...time.Time) roster.Section {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sec, err := repo.CreateSection(context.Background(), roster.Section{Name: name, CreatedAt: tstamp, UpdatedAt: tstamp})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return sec
}

func CreateTeacher(t *testing.T, repo roster.Repository, name, email string, subjects ...roster.Subject) roster.Teacher {
	t.Helper()
	tstamp := time.Now().UTC()
	quals := make([]string, 0, len(subjects))
	for _, subj := range subjects {
		quals = append(quals, subj.ID)
	}
	tchr, err := repo.CreateTeacher(context.Background(), roster.Teacher{
		Name:              name,
		Email:             email,
		QualifiedSubjects: quals,
		CreatedAt:         tstamp,
		UpdatedAt:         tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

// Sections creates n sections named prefix-1 .. prefix-n.
func Sections(t *testing.T, repo roster.Repository, prefix string, n int) []roster.Section {
	t.Helper()
	sections := make([]roster.Section, 0, n)
	for i := 1; i <= n; i++ {
		sections = append(sections, CreateSection(t, repo, fmt.Sprintf("%s-%d", prefix, i)))
	}
	return sections
}

// Entry is one call recorded by Logger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger writing to the test log and recording every call.
type Logger struct {
	t       testing.TB
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{t: t}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
	l.t.Logf("%s: %s %v", level, msg, args)
}

// Entries returns the recorded calls of the given level ("" for all).
func (l *Logger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.t.Fatal(msg)
}
