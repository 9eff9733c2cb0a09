package directory

import (
	"fmt"
	"strings"
	"time"

	"github.com/hotdogs-ns/hns/schema"
)

const (
	MinNameLength = 3
	MaxNameLength = 10
)

// ParseDomain splits user input into name and tld. Input without a dot, or
// with more than one, gets defaultTld. Characters outside [a-z0-9] are
// dropped from the name.
func ParseDomain(input, defaultTld string) (name, tld string) {
	input = strings.ToLower(strings.TrimSpace(input))
	tld = strings.ToLower(defaultTld)
	parts := strings.Split(input, ".")
	if len(parts) == 2 {
		input, tld = parts[0], parts[1]
	}
	return stripName(input), tld
}

func stripName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateName checks a parsed name against the registrable alphabet and the known tlds.
func ValidateName(name, tld string, tlds []schema.TldEntry) error {
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return fmt.Errorf("%w: name must be %d to %d characters", schema.ErrInvalidName, MinNameLength, MaxNameLength)
	}
	if stripName(name) != name {
		return fmt.Errorf("%w: only lowercase letters and digits are allowed", schema.ErrInvalidName)
	}
	for _, t := range tlds {
		if strings.EqualFold(t.Tld, tld) {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown tld %q", schema.ErrInvalidName, tld)
}

// DefaultTld is the first enumerated tld, or "" when there are none.
func DefaultTld(tlds []schema.TldEntry) string {
	if len(tlds) == 0 {
		return ""
	}
	return tlds[0].Tld
}

// ExpiringSoon reports whether expiration falls within the next window.
// Already expired names are not "soon".
func ExpiringSoon(expiration uint64, now time.Time, window time.Duration) bool {
	n := now.Unix()
	if n < 0 || expiration <= uint64(n) {
		return false
	}
	return expiration-uint64(n) <= uint64(window/time.Second)
}
