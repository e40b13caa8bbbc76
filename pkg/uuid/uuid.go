// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the unique identifiers used across the hub.

It wraps the standard UUID library to generate random Version 4 values,
matching the server-side gen_random_uuid() defaults of the session tables so
that every identifier in the system shares one format.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new random UUIDv4 string.
func New() string {

	// Create a new version 4 UUID
	id, err := uuid.NewRandom()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUID: " + err.Error())
	}

	// Convert the UUID to a string
	return id.String()
}

// Validate reports whether the value parses as a canonical UUID.
func Validate(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
