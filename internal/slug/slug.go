// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	gosimple "github.com/gosimple/slug"
)

// MaxLength is the longest slug the categories table stores.
const MaxLength = 120

// Generate creates a lowercase, ASCII-only, hyphenated slug from s.
// Accented letters are transliterated, so "Montres Été" becomes "montres-ete".
func Generate(s string) string {
	return gosimple.Make(s)
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return s != "" && gosimple.IsSlug(s)
}
