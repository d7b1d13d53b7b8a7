package cache

import (
	"strings"
)

const keySeparator = "::"

// Key builds the cache key for a file path and its content hash. A changed
// file hashes differently and so never hits a stale entry.
func Key(path, hash string) string {
	return path + keySeparator + hash
}

// SplitKey is the inverse of Key. The hash is the part after the last
// separator since paths may contain "::" themselves.
func SplitKey(key string) (path, hash string) {
	i := strings.LastIndex(key, keySeparator)
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+len(keySeparator):]
}
