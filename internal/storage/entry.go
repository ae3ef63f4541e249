package storage

import (
	"strings"
	"time"
)

// TimestampLayout is the on-disk timestamp format
const TimestampLayout = time.RFC3339Nano

// Layouts accepted when reading timestamps, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"2/1/2006 15:04:05",
}

// Entry is a single credential row inside a vault
type Entry struct {
	Username  string
	Secret    string
	Timestamp time.Time
}

// NewEntry creates an entry stamped with the current time
func NewEntry(username, secret string) Entry {
	return Entry{
		Username:  username,
		Secret:    secret,
		Timestamp: time.Now(),
	}
}

// VaultRecord is one vault as seen by the store: its registry row plus the
// entries that go into its own file
type VaultRecord struct {
	Name         string
	PasswordHash string
	Entries      []Entry
}

// ParseTimestamp parses a stored timestamp, falling back to now when the
// text matches none of the accepted layouts
func ParseTimestamp(s string, now func() time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return now()
}

func formatEntry(e Entry) string {
	return strings.Join([]string{e.Username, e.Secret, e.Timestamp.Format(TimestampLayout)}, ",")
}

func formatVault(v VaultRecord) string {
	return v.Name + "," + v.PasswordHash
}
