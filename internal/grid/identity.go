package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

const temporaryPrefix = "tmp-"

// RowID identifies a row. It holds either the server-assigned task ID or a
// client-generated temporary ID, never both.
type RowID struct {
	server int
	temp   string
}

// ServerID returns the identity of a persisted task.
func ServerID(id int) RowID {
	return RowID{server: id}
}

// NewTemporaryID returns a session-unique temporary identity. The ULID
// carries a millisecond timestamp and 80 random bits.
func NewTemporaryID() RowID {
	return RowID{temp: temporaryPrefix + ulid.Make().String()}
}

// IsTemporary reports whether id has never been confirmed by the backend.
func IsTemporary(id RowID) bool {
	return id.temp != ""
}

func (id RowID) IsTemporary() bool {
	return IsTemporary(id)
}

func (id RowID) IsZero() bool {
	return id == RowID{}
}

// Server returns the backend ID and false for temporary identities.
func (id RowID) Server() (int, bool) {
	if id.IsTemporary() || id.IsZero() {
		return 0, false
	}
	return id.server, true
}

// String is the row-id function handed to the view.
func (id RowID) String() string {
	if id.IsTemporary() {
		return id.temp
	}
	return strconv.Itoa(id.server)
}

// ParseRowID is the inverse of String.
func ParseRowID(s string) (RowID, error) {
	if strings.HasPrefix(s, temporaryPrefix) {
		if _, err := ulid.ParseStrict(strings.TrimPrefix(s, temporaryPrefix)); err != nil {
			return RowID{}, fmt.Errorf("invalid temporary row id %q: %w", s, err)
		}
		return RowID{temp: s}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return RowID{}, fmt.Errorf("invalid row id %q", s)
	}
	return ServerID(n), nil
}

// Reconcile replaces the temporary identity of row with the server one. The
// row keeps its position and every other field.
func Reconcile(row *Row, serverID int) {
	row.ID = ServerID(serverID)
	row.State = StatePersisted
}
