package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash input prefixes keep a title from colliding with an identical link.
const (
	titleKeyPrefix = "title:"
	linkKeyPrefix  = "link:"
)

// DeriveID returns a stable identifier for e.
// A non-empty NativeID is returned unchanged. Otherwise the id is the hex
// SHA-256 of the title, or of the link when the title is empty.
func DeriveID(e Entry) (string, error) {
	if e.NativeID != "" {
		return e.NativeID, nil
	}

	var key string
	switch {
	case e.Title != "":
		key = titleKeyPrefix + e.Title
	case e.Link != "":
		key = linkKeyPrefix + e.Link
	default:
		return "", &IdentityError{RawPublished: e.RawPublished}
	}

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]), nil
}
