// Package store defines the persistence contracts for members, locations
// and the entry log. sqlstore implements them over the portable DAL;
// memory implements them for tests and local development.
package store

import "errors"

// ErrConflict is returned when a write would duplicate a unique key (a
// member's rfid or a location's name).
var ErrConflict = errors.New("store: conflicting record exists")
