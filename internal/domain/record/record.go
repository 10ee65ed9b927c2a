package record

import (
	"fmt"
	"strings"
)

// EntityType identifies which target table a record belongs to.
type EntityType string

const (
	EntityCustomer EntityType = "customer"
	EntityJob      EntityType = "job"
	EntityMaterial EntityType = "material"
	EntityVendor   EntityType = "vendor"
)

// ParseEntityType validates a user-supplied data type selector.
func ParseEntityType(value string) (EntityType, error) {
	switch entity := EntityType(strings.ToLower(strings.TrimSpace(value))); entity {
	case EntityCustomer, EntityJob, EntityMaterial, EntityVendor:
		return entity, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDataType, value)
	}
}

// CanonicalRecord is one normalized row keyed by target field name.
type CanonicalRecord struct {
	Entity EntityType
	Fields map[string]string
}

// Get returns the value of a target field, or "" when absent.
func (r CanonicalRecord) Get(field string) string {
	return r.Fields[field]
}

// Has reports whether a target field is present and non-empty.
func (r CanonicalRecord) Has(field string) bool {
	return r.Fields[field] != ""
}
