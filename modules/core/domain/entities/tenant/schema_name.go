package tenant

import (
	"regexp"
	"strings"
)

// Postgres identifier limit. A derived name longer than this is rejected
// before any schema is created rather than silently truncated, since
// truncation would break slug -> schema injectivity.
const maxSchemaNameLength = 63

const schemaPrefix = "tenant_"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks that a slug is URL-safe and short enough that its
// derived schema name fits the storage engine's identifier limit.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrInvalidSlug.WithDetails("slug is empty")
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug.WithDetails("slug %q must be lowercase alphanumeric with single hyphens", slug)
	}
	if len(schemaPrefix)+len(slug) > maxSchemaNameLength {
		return ErrInvalidSlug.WithDetails("slug %q derives a schema name longer than %d bytes", slug, maxSchemaNameLength)
	}
	return nil
}

// DeriveSchemaName maps a slug to its schema name. The mapping is pure and
// injective: hyphens become underscores and underscores never appear in a
// valid slug, so two distinct slugs cannot collide.
func DeriveSchemaName(slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return schemaPrefix + strings.ReplaceAll(slug, "-", "_"), nil
}

// IsTenantSchema reports whether a physical schema name belongs to the
// tenant namespace. Used by orphan cleanup to ignore public and system
// schemas.
func IsTenantSchema(schema string) bool {
	return strings.HasPrefix(schema, schemaPrefix) && len(schema) > len(schemaPrefix)
}
