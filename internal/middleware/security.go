// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// SecureHeaders adds browser hardening headers to every response. The
// content security policy allows images from the site itself and from
// mediaOrigins, where product and category pictures are served.
func SecureHeaders(mediaOrigins ...string) func(http.Handler) http.Handler {
	imgSrc := append([]string{"'self'", "data:"}, mediaOrigins...)
	csp := strings.Join([]string{
		"default-src 'self'",
		"img-src " + strings.Join(imgSrc, " "),
		"style-src 'self'",
		"script-src 'self'",
		"form-action 'self'",
		"frame-ancestors 'self'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "interest-cohort=()")
			h.Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}
