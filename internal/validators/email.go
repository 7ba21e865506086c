// Package validators holds the contact checks shared by client signup and
// staff registration.
package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

const lookupTimeout = 3 * time.Second

// Resolver is the part of *net.Resolver used by the domain check.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// NormalizeEmail trims and lower-cases an address, the form stored for
// clients and staff users.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the domain part of a normalized address, or "" when
// either side of the "@" is empty.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// EmailDomainAccepts reports whether the address domain can receive mail:
// an MX record, or at least an address record.
func EmailDomainAccepts(ctx context.Context, r Resolver, email string) bool {
	domain := EmailDomain(email)
	if domain == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	if mx, err := r.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := r.LookupIPAddr(ctx, domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}

// IsEmailDomainValid checks email against the system resolver.
func IsEmailDomainValid(email string) bool {
	return EmailDomainAccepts(context.Background(), net.DefaultResolver, email)
}
