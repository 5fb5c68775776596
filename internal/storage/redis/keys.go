package redis

import "fmt"

// documentKey returns the Redis key holding a document
func documentKey(prefix, path string) string {
	return fmt.Sprintf("%s:doc:%s", prefix, path)
}

// savedAtKey returns the Redis key holding the last save time of a document
func savedAtKey(prefix, path string) string {
	return fmt.Sprintf("%s:saved_at:%s", prefix, path)
}
