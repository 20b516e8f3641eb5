// Package slot provides the persisted key-value entries friend lists are
// mirrored into. Every backend holds one value per key and overwrites it
// unconditionally on write.
package slot

import "strings"

const DefaultNamespace = "fitmate"

// Key builds the namespaced key for an owner's friend list. An empty owner
// gives the single-profile key.
func Key(namespace, owner string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	parts := []string{namespace}
	if owner != "" {
		parts = append(parts, owner)
	}
	parts = append(parts, "friends")

	return strings.Join(parts, ":")
}
