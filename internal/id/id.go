// Package id generates the short identifiers vigil stamps into its logs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphanumeric only, so the dash between prefix and ID stays the only
// dash in the result and the prefix can be split back off.
const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	length   = 12
)

// Generate creates a prefixed unique ID (e.g. "run-4f90d13a42Xp").
//
// Twelve characters keep the stamp short enough to repeat on every log
// line while staying far from collision for any realistic number of
// daemon runs.
//
// Returns an error if the system has insufficient entropy for secure
// random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Meant for startup paths where running without an ID is not an option.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
