// Package uuid issues the string identifiers used as primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Version 7 ids sort by creation time, which
// keeps inserts into the primary key index append-only.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse checks that s is a UUID and returns it in canonical lower-case form,
// so ids from paths and forms compare equal to stored ones.
func Parse(s string) (string, error) {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
