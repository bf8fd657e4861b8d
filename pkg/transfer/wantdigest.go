package transfer

import (
	"fmt"
	"strconv"
	"strings"
)

// WantDigestContentMD5 is the legacy sentinel asking clients for a
// Content-MD5 header on part uploads. It takes precedence over the RFC 3230
// list form and is matched exactly.
const WantDigestContentMD5 = "contentMD5"

// ValidateWantDigest checks a want_digest value: either the legacy
// Content-MD5 sentinel or an RFC 3230 style list of digest algorithms with
// optional q-weights, e.g. "sha-256;q=1, md5;q=0.5".
func ValidateWantDigest(value string) error {
	if value == "" || value == WantDigestContentMD5 {
		return nil
	}

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		algo, weight, ok := strings.Cut(entry, ";")
		if algo == "" {
			return fmt.Errorf("empty digest algorithm in %q", value)
		}
		if !ok {
			continue
		}

		q, found := strings.CutPrefix(strings.TrimSpace(weight), "q=")
		if !found {
			return fmt.Errorf("malformed digest parameter %q", entry)
		}
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v < 0 || v > 1 {
			return fmt.Errorf("digest q-value out of range in %q", entry)
		}
	}
	return nil
}
