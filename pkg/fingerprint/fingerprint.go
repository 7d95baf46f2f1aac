package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// AlgoVersion tags every fingerprint this package produces. Changing the
// algorithm means bumping this string so historical creatives keep their own
// fingerprint space instead of being silently reclustered.
const AlgoVersion = "sha256/v1"

// CopyTuple is the normalized copy surface of an ad. Fields are expected to
// already be normalized (canonical landing URL, trimmed text) by the caller.
type CopyTuple struct {
	BodyText       string
	Headline       string
	Description    string
	CTAType        string
	CTAText        string
	LandingURL     string
	DestinationDom string
}

// Copy hashes the normalized copy tuple. The tuple is encoded as labeled,
// pipe-delimited fields so a value shifting between fields changes the hash.
func Copy(t CopyTuple) string {
	return hash(canonical([]field{
		{"body", t.BodyText},
		{"headline", t.Headline},
		{"description", t.Description},
		{"cta_type", t.CTAType},
		{"cta_text", t.CTAText},
		{"landing_url", t.LandingURL},
		{"destination_domain", t.DestinationDom},
	}))
}

// Media hashes the sorted set of media content identities (sha256 when known,
// else the channel/source_url identity). An ad with no media hashes the empty
// set, which is itself a stable identity.
func Media(identities []string) string {
	sorted := make([]string, len(identities))
	copy(sorted, identities)
	sort.Strings(sorted)

	fields := make([]field, 0, len(sorted))
	for _, id := range sorted {
		fields = append(fields, field{"asset", id})
	}
	return hash(canonical(fields))
}

// Creative combines the copy and media fingerprints with the algorithm
// version into the clustering key.
func Creative(copyFingerprint, mediaFingerprint string) string {
	return hash(canonical([]field{
		{"algo", AlgoVersion},
		{"copy", copyFingerprint},
		{"media", mediaFingerprint},
	}))
}

type field struct {
	key   string
	value string
}

// canonical builds the deterministic encoding that gets hashed. Values are
// lowercased and whitespace-trimmed; the escape character and the delimiter
// are both escaped so crafted values cannot collide across field boundaries.
func canonical(fields []field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		value := strings.ToLower(strings.TrimSpace(f.value))
		value = strings.ReplaceAll(value, "\\", "\\\\")
		value = strings.ReplaceAll(value, "|", "\\|")
		parts = append(parts, f.key+"="+value)
	}
	return strings.Join(parts, "|")
}

func hash(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
