package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID generates a unique ID for requests
func GenerateID() string {
	return uuid.NewString()
}

// Hashkey returns a short identifier that is safe to embed in a parameter
// name. It always starts with a letter.
func Hashkey() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "p" + id[:7]
}
