package store

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrCollectionInvalid is returned when a collection name does not match the required pattern.
	ErrCollectionInvalid = errors.New("collection must match [a-z0-9][a-z0-9-]*[a-z0-9]")

	// ErrNameEmpty is returned when an item is created without a name.
	ErrNameEmpty = errors.New("name must not be empty")

	collectionRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]*[a-z0-9])?$`)
)

// maxNameLen bounds item names; the column is VARCHAR(255).
const maxNameLen = 255

// ValidateCollection checks that name is a lowercase slug, so that it can
// appear in a URL path segment without escaping.
func ValidateCollection(name string) error {
	if !collectionRe.MatchString(name) || len(name) > 64 {
		return ErrCollectionInvalid
	}
	return nil
}

// ValidateName checks an item name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameEmpty
	}
	if len(name) > maxNameLen {
		return errors.New("name must be at most 255 bytes")
	}
	return nil
}
