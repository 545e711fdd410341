package repository

import (
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/careline-io/careline/pkg/careline/core"
)

type fixedClock struct {
	now time.Time
}

func (f *fixedClock) Now() time.Time                         { return f.now }
func (f *fixedClock) After(d time.Duration) <-chan time.Time { return time.After(0) }
func (f *fixedClock) Sleep(d time.Duration)                  {}

var _ core.Clock = (*fixedClock)(nil)

func withDatabaseType(t *testing.T, dbType string) {
	t.Helper()
	old, had := os.LookupEnv("CARELINE_DATABASE_TYPE")
	os.Setenv("CARELINE_DATABASE_TYPE", dbType)
	t.Cleanup(func() {
		if had {
			os.Setenv("CARELINE_DATABASE_TYPE", old)
		} else {
			os.Unsetenv("CARELINE_DATABASE_TYPE")
		}
	})
}

func TestPlaceholder(t *testing.T) {
	withDatabaseType(t, "POSTGRES")
	if got := placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder(3) = %s, want $3", got)
	}

	withDatabaseType(t, "MYSQL")
	if got := placeholder(3); got != "?" {
		t.Errorf("mysql placeholder(3) = %s, want ?", got)
	}

	withDatabaseType(t, "SQLLITE")
	if got := placeholder(1); got != "?" {
		t.Errorf("sqlite placeholder(1) = %s, want ?", got)
	}
}

func TestDateBeforeOrAtNow(t *testing.T) {
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	withDatabaseType(t, "POSTGRES")
	got := dateBeforeOrAtNow("resume_at", clock)
	if got != "resume_at <= '2025-06-01 12:00:00.000'" {
		t.Errorf("unexpected postgres predicate %q", got)
	}

	withDatabaseType(t, "SQLLITE")
	got = dateBeforeOrAtNow("resume_at", clock)
	if !strings.Contains(got, "julianday(resume_at)") {
		t.Errorf("sqlite predicate must compare juliandays, got %q", got)
	}
}

func TestSupportsReturning(t *testing.T) {
	withDatabaseType(t, "POSTGRES")
	if !supportsReturning() {
		t.Error("postgres supports RETURNING")
	}
	withDatabaseType(t, "MYSQL")
	if supportsReturning() {
		t.Error("mysql does not support RETURNING")
	}
}

func TestFormatDateInDatabaseNull(t *testing.T) {
	withDatabaseType(t, "POSTGRES")
	if got := formatDateInDatabaseNull(sql.NullTime{}); got != nil {
		t.Errorf("invalid time should format to nil, got %v", got)
	}

	ts := time.Date(2025, 6, 1, 12, 0, 0, 500000000, time.UTC)
	got := formatDateInDatabaseNull(sql.NullTime{Time: ts, Valid: true})
	if got != "2025-06-01 12:00:00.500000" {
		t.Errorf("unexpected formatted time %v", got)
	}
}
