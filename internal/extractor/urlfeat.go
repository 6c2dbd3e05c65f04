package extractor

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

// Substrings that mark a URL as likely abusive: shorteners hide the real
// destination, "@" confuses host perception, double slashes smuggle a
// second URL into the path.
var suspiciousURLPatterns = []string{
	"bit.ly",
	"tiny.cc",
	"t.co",
	"goo.gl",
	"@",
	"//",
}

// URLExtractor derives structural features from the URL itself. It never
// touches the body, so it succeeds even for unrenderable documents.
type URLExtractor struct {
	timeout time.Duration
}

func NewURLExtractor(timeout time.Duration) *URLExtractor {
	return &URLExtractor{timeout: timeout}
}

func (e *URLExtractor) Name() string { return model.FeatureURL }

func (e *URLExtractor) Timeout() time.Duration { return e.timeout }

func (e *URLExtractor) Extract(_ context.Context, doc *model.Document) (any, error) {
	u, err := url.Parse(doc.URL)
	if err != nil {
		return nil, err
	}
	host := u.Hostname()

	// The scheme's "//" is not a smuggling signal; inspect past it.
	rest := doc.URL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}

	var patterns []string
	for _, p := range suspiciousURLPatterns {
		if strings.Contains(rest, p) {
			patterns = append(patterns, p)
		}
	}

	return &model.URLFeatures{
		Length:             len(doc.URL),
		ContainsIP:         net.ParseIP(host) != nil,
		SubdomainCount:     subdomainCount(host),
		SuspiciousPatterns: patterns,
		Punycode:           strings.Contains(host, "xn--"),
		HasUserinfo:        u.User != nil,
		HyphenCount:        strings.Count(host, "-"),
	}, nil
}

// subdomainCount counts labels left of the registrable domain, approximated
// as everything left of the final two labels. IP hosts have none.
func subdomainCount(host string) int {
	if net.ParseIP(host) != nil {
		return 0
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return 0
	}
	return len(labels) - 2
}
