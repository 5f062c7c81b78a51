package service

import (
	"context"
	"net"
	"regexp"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+\-']+@[^@\s]+$`)
	idnaProfile  = idna.Lookup
)

const defaultPhoneRegion = "US"

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// ContactNormalizer validates and normalizes imported lead contact fields.
type ContactNormalizer struct {
	DefaultRegion string
	dnsResolver   DNSResolver

	mu          sync.Mutex
	domainCache map[string]bool
}

// ContactNormalizerOption configures optional dependencies.
type ContactNormalizerOption func(*ContactNormalizer)

// WithMXCheck rejects email domains without MX records.
func WithMXCheck(resolver DNSResolver) ContactNormalizerOption {
	return func(n *ContactNormalizer) {
		if resolver == nil {
			resolver = systemDNSResolver{}
		}
		n.dnsResolver = resolver
	}
}

// NewContactNormalizer builds a normalizer for the given phone region.
func NewContactNormalizer(defaultRegion string, opts ...ContactNormalizerOption) *ContactNormalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	n := &ContactNormalizer{DefaultRegion: region, domainCache: map[string]bool{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ValidEmail reports whether raw is a syntactically valid address whose domain
// converts to ASCII. The address itself is never rewritten.
func (n *ContactNormalizer) ValidEmail(ctx context.Context, raw string) bool {
	email := strings.TrimSpace(raw)
	if email == "" || !emailPattern.MatchString(email) {
		return false
	}
	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" || !isDomainValid(asciiDomain) {
		return false
	}
	if n.dnsResolver == nil {
		return true
	}
	n.mu.Lock()
	ok, cached := n.domainCache[asciiDomain]
	n.mu.Unlock()
	if cached {
		return ok
	}
	records, err := n.dnsResolver.LookupMX(ctx, asciiDomain)
	ok = err == nil && len(records) > 0
	n.mu.Lock()
	n.domainCache[asciiDomain] = ok
	n.mu.Unlock()
	return ok
}

// NormalizePhone returns the E.164 form of raw, or raw trimmed when it cannot
// be parsed as a valid number.
func (n *ContactNormalizer) NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if normalized := normalizePhone(raw, n.DefaultRegion); normalized != "" {
		return normalized
	}
	return raw
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
