// Package uuid wraps the uuid type used for player and profile ids.
package uuid

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	guuid "github.com/google/uuid"
)

// UUID is a 128 bit universally unique identifier.
type UUID guuid.UUID

// Nil is the zero value, all zeros.
var Nil = UUID(guuid.Nil)

// New returns a random (version 4) UUID.
func New() UUID { return UUID(guuid.New()) }

// Parse decodes s into a UUID. The dashed canonical form and the raw
// hex form used by the Mojang session server are both accepted.
func Parse(s string) (UUID, error) {
	id, err := guuid.Parse(s)
	return UUID(id), err
}

// FromBytes copies a 16 byte slice into a UUID.
func FromBytes(b []byte) (UUID, error) {
	id, err := guuid.FromBytes(b)
	return UUID(id), err
}

// OfflinePlayerUUID derives the offline-mode uuid of a username the
// same way the vanilla server does: a name-based md5 uuid (version 3)
// of "OfflinePlayer:" + username.
func OfflinePlayerUUID(username string) UUID {
	id := md5.Sum([]byte("OfflinePlayer:" + username))
	id[6] = (id[6] & 0x0f) | 0x30 // version 3
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// String returns the canonical dashed form
// xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
func (i UUID) String() string { return guuid.UUID(i).String() }

// Undashed returns the raw hex form without dashes.
func (i UUID) Undashed() string { return hex.EncodeToString(i[:]) }

// MarshalJSON encodes the uuid as a quoted dashed string.
func (i UUID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(i.String())), nil
}

// UnmarshalJSON decodes a quoted uuid string.
func (i *UUID) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("expected quoted uuid, but got %s: %w", b, err)
	}
	*i, err = Parse(s)
	return err
}
