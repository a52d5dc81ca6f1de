package shared

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// MaxSlugLength bounds the base slug before any uniqueness suffix.
const MaxSlugLength = 100

var repeatedDashes = regexp.MustCompile(`-{2,}`)

// Slugify derives a lowercase, accent-free slug made only of [a-z0-9-].
// fallback is used when name has no usable characters.
func Slugify(name, fallback string) string {
	s := slug.Make(strings.ReplaceAll(name, "&", " e "))
	s = strings.ReplaceAll(s, "_", "-")
	s = repeatedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}

// SlugTaken reports whether a slug is already held.
type SlugTaken func(ctx context.Context, slug string) (bool, error)

// UniqueSlug returns base when free, otherwise base-1, base-2, ... until taken reports false.
func UniqueSlug(ctx context.Context, base string, taken SlugTaken) (string, error) {
	candidate := base
	for attempt := 1; ; attempt++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = base + "-" + strconv.Itoa(attempt)
	}
}
