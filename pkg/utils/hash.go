package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// HashParts hashes an ordered list of parts; the separator keeps
// ["ab", "c"] and ["a", "bc"] distinct.
func HashParts(parts ...string) string {
	return HashString(strings.Join(parts, "\x1f"))
}
