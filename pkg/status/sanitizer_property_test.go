package status

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_SanitizeRemovesCredentials tests that credentials never survive sanitization
//
// Property: for any user/password embedded in a DSN, URL or password= pair,
// the sanitized message does not contain the password.
func TestProperty_SanitizeRemovesCredentials(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 30

	properties := gopter.NewProperties(parameters)
	sanitizer := NewSanitizer()

	// long enough to not collide with the surrounding text
	password := gen.RegexMatch(`[A-Za-z0-9]{12,20}`)
	user := gen.RegexMatch(`[a-z]{3,10}`)

	properties.Property("mysql dsn passwords are removed", prop.ForAll(
		func(u, p string) bool {
			msg := fmt.Sprintf("open: %s:%s@tcp(db:3306)/hr", u, p)
			return !strings.Contains(sanitizer.Sanitize(msg), p)
		},
		user, password,
	))

	properties.Property("url passwords are removed", prop.ForAll(
		func(u, p string) bool {
			msg := fmt.Sprintf("connect postgres://%s:%s@pg:5432/hr", u, p)
			return !strings.Contains(sanitizer.Sanitize(msg), p)
		},
		user, password,
	))

	properties.Property("password assignments are removed", prop.ForAll(
		func(p string) bool {
			msg := fmt.Sprintf("user=hr password=%s dbname=hr", p)
			return !strings.Contains(sanitizer.Sanitize(msg), p)
		},
		password,
	))

	properties.Property("sanitize is idempotent", prop.ForAll(
		func(u, p string) bool {
			msg := fmt.Sprintf("%s:%s@tcp(10.1.2.3:3306)/hr password=%s", u, p, p)
			once := sanitizer.Sanitize(msg)
			return sanitizer.Sanitize(once) == once
		},
		user, password,
	))

	properties.TestingRun(t)
}
