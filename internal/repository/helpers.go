package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// parseStoredDate parses a stored "YYYY-MM-DD" value. Text that does not
// parse is handed back as raw so the grid can flag it.
func parseStoredDate(s string) (t time.Time, raw string) {
	parsed, err := calendar.Parse(s)
	if err != nil {
		return time.Time{}, s
	}
	return parsed, ""
}

// storedDate is the inverse of parseStoredDate.
func storedDate(t time.Time, raw string) string {
	if t.IsZero() && raw != "" {
		return raw
	}
	return calendar.Format(t)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// isUniqueViolation reports whether err comes from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		if serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
