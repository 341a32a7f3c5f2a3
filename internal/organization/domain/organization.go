package domain

import (
	"errors"
	"strings"
	"time"
)

// Org is an organization: the tenant boundary. Slug is URL-safe and globally
// unique; it appears in dashboard paths and in session snapshots.
type Org struct {
	ID        string
	Name      string
	Slug      string
	LogoURL   string // optional
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the organization for persistence.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("organization name is required")
	}
	if o.Slug == "" {
		return errors.New("organization slug is required")
	}
	return nil
}

// Slugify derives a URL-safe slug from a display name: lowercase, runs of
// non-alphanumeric characters collapse to a single hyphen, leading and
// trailing hyphens are trimmed. "My Org!!" becomes "my-org".
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
