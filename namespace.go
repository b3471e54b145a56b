package estester

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueIndex returns a collision-free index name with the given prefix,
// lowercased to satisfy the backend's naming rules. Tests that run in
// parallel against the shared cluster must each use their own index name;
// two tests targeting the same name are a correctness hazard.
func UniqueIndex(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return strings.ToLower(prefix) + "-" + id
}
