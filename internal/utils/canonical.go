package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	// DropTrackingParams removes common tracking params (utm_*, gclid, ...).
	DropTrackingParams bool

	// StripTrailingSlash treats /a and /a/ the same by removing the
	// trailing slash (except for root "/").
	StripTrailingSlash bool

	// DefaultScheme, when non-empty, is assumed for schemeless input;
	// otherwise a scheme is required.
	DefaultScheme string
}

// DefaultCanonicalizeOptions is the policy used for fingerprinting.
func DefaultCanonicalizeOptions() CanonicalizeOptions {
	return CanonicalizeOptions{
		DropTrackingParams: true,
		StripTrailingSlash: true,
		DefaultScheme:      "https",
	}
}

var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize returns a deterministic canonical form of raw or an error.
// Scheme and host are lowercased, IDN hosts converted to punycode, default
// ports and userinfo stripped, the path cleaned, the fragment removed and
// query parameters sorted by key and value.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrEmptyURL}
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrMissingHost}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrBadScheme}
	}

	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default ports only.
	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "":
		u.Host = host
	default:
		u.Host = net.JoinHostPort(host, port)
	}

	u.User = nil
	u.Fragment = ""

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = "/"
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
		if cleanPath == "" {
			cleanPath = "/"
		}
	}
	u.Path = cleanPath

	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if _, ok := trackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// Fingerprint returns the dedup/cache key for a canonical URL: the hex
// sha256 of the canonical string.
func Fingerprint(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CanonicalFingerprint canonicalizes raw and returns both the canonical
// form and its fingerprint.
func CanonicalFingerprint(raw string, opts CanonicalizeOptions) (canonical, fingerprint string, err error) {
	canonical, err = Canonicalize(raw, opts)
	if err != nil {
		return "", "", err
	}
	return canonical, Fingerprint(canonical), nil
}

// Errors
var (
	ErrEmptyURL    = &errStr{"empty url"}
	ErrMissingHost = &errStr{"missing host"}
	ErrBadScheme   = &errStr{"unsupported scheme"}
)

type errStr struct{ s string }

func (e *errStr) Error() string { return e.s }
