package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	// legal suffixes stripped from brand names so "Acme Inc." and "Acme"
	// resolve to the same identity
	legalSuffixes = []string{
		"inc", "incorporated", "llc", "ltd", "limited", "corp",
		"corporation", "co", "gmbh", "plc", "sa", "pty",
	}

	// query params that vary per click but never change the destination
	trackingParams = map[string]bool{
		"fbclid":      true,
		"gclid":       true,
		"gbraid":      true,
		"wbraid":      true,
		"msclkid":     true,
		"ttclid":      true,
		"li_fat_id":   true,
		"twclid":      true,
		"igshid":      true,
		"mc_eid":      true,
		"mkt_tok":     true,
		"_hsenc":      true,
		"_hsmi":       true,
		"hsa_acc":     true,
		"hsa_cam":     true,
		"vero_conv":   true,
		"vero_id":     true,
		"ref_src":     true,
		"s_kwcid":     true,
		"spm":         true,
		"scid":        true,
		"click_id":    true,
		"yclid":       true,
		"dclid":       true,
		"irclickid":   true,
		"affiliate":   true,
		"affiliateid": true,
	}
)

// BrandName lowercases, strips punctuation and legal suffixes, and collapses
// whitespace so name-based brand matching is stable across providers.
func BrandName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = punctuationRegex.ReplaceAllString(normalized, " ")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	words := strings.Split(normalized, " ")
	for len(words) > 1 {
		last := words[len(words)-1]
		if !isLegalSuffix(last) {
			break
		}
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}

func isLegalSuffix(word string) bool {
	for _, suffix := range legalSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}

// URL canonicalizes a URL for storage and comparison: lowercased scheme and
// host, default ports removed, fragment dropped. Returns "" when the input
// cannot be parsed as a URL with a host.
func URL(raw string) string {
	parsed := parseWithHost(raw)
	if parsed == nil {
		return ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}

	return parsed.String()
}

// StripTrackingParams removes click identifiers and utm_* params from the
// query string. The remaining params keep their original order.
func StripTrackingParams(raw string) string {
	parsed := parseWithHost(raw)
	if parsed == nil {
		return raw
	}

	if parsed.RawQuery == "" {
		return parsed.String()
	}

	kept := make([]string, 0)
	for _, pair := range strings.Split(parsed.RawQuery, "&") {
		key := pair
		if idx := strings.Index(pair, "="); idx >= 0 {
			key = pair[:idx]
		}
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			continue
		}
		kept = append(kept, pair)
	}

	parsed.RawQuery = strings.Join(kept, "&")
	return parsed.String()
}

// LandingURL is the canonical form used for durable ad fields and copy
// fingerprints: tracking params stripped, then normalized.
func LandingURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return URL(StripTrackingParams(raw))
}

// PrimaryDomain extracts the registrable domain (eTLD+1) from a URL or bare
// hostname. Returns "" when no registrable domain can be derived.
func PrimaryDomain(raw string) string {
	host := hostOf(raw)
	if host == "" {
		return ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}

func hostOf(raw string) string {
	parsed := parseWithHost(raw)
	if parsed == nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return strings.TrimSuffix(host, ".")
}

func parseWithHost(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err == nil && parsed.Host != "" {
		return parsed
	}

	// bare hostnames like "example.com/path" parse without a host
	if !strings.Contains(raw, "://") {
		parsed, err = url.Parse("https://" + raw)
		if err == nil && parsed.Host != "" {
			return parsed
		}
	}

	return nil
}
