package documents

import (
	"fmt"
	"strings"
)

// StorageKey derives the object-store location for a new document:
// {ownerId}/{documentId}/{fileName}. Assigned once at creation.
func StorageKey(ownerID, documentID, fileName string) string {
	return ownerID + "/" + documentID + "/" + fileName
}

// ParseStorageKey extracts the owner and document identifiers from an
// object key. Keys with fewer than two path segments are malformed.
func ParseStorageKey(key string) (ownerID, documentID string, err error) {
	parts := strings.Split(key, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed storage key %q", key)
	}
	return parts[0], parts[1], nil
}
