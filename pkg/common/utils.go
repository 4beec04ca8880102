package common

import (
	"fmt"
	"strings"
)

// Returns a string like "1 plugin" or "3 plugins" for the given slice.
func GetSingularPluralStringSimple[T any](items []T, singular string) string {
	return GetSingularPluralString(len(items), singular, singular+"s")
}

// Returns the count together with the singular or plural word.
func GetSingularPluralString(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Returns the value or a placeholder if the value is empty.
func ValueOrPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(null)"
	}
	return value
}
