package extractor

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/webguardai/webguard/internal/model"
)

// Phrases that pressure the reader into credential entry. Matched against
// lowercased visible text.
var suspiciousTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`verify.*account`),
	regexp.MustCompile(`confirm.*password`),
	regexp.MustCompile(`security.*update`),
	regexp.MustCompile(`login.*expired`),
	regexp.MustCompile(`unusual.*activity`),
	regexp.MustCompile(`suspended.*account`),
}

// TextExtractor derives lexical and form features from the document body.
type TextExtractor struct {
	timeout time.Duration
}

// NewTextExtractor returns the text extractor. A zero timeout defers to the
// registry default.
func NewTextExtractor(timeout time.Duration) *TextExtractor {
	return &TextExtractor{timeout: timeout}
}

func (e *TextExtractor) Name() string { return model.FeatureText }

func (e *TextExtractor) Timeout() time.Duration { return e.timeout }

func (e *TextExtractor) Extract(_ context.Context, doc *model.Document) (any, error) {
	q, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	text := strings.ToLower(collapseWhitespace(q.Find("body").Text()))

	var matches []string
	for _, re := range suspiciousTextPatterns {
		if re.MatchString(text) {
			matches = append(matches, re.String())
		}
	}

	pageHost := hostOf(doc.URL)
	external := 0
	q.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		h := hostOf(href)
		if h != "" && !strings.EqualFold(h, pageHost) {
			external++
		}
	})

	return &model.TextFeatures{
		TextLength:        len(text),
		Title:             strings.TrimSpace(q.Find("title").First().Text()),
		SuspiciousMatches: matches,
		FormCount:         q.Find("form").Length(),
		PasswordInputs:    q.Find(`input[type="password"]`).Length(),
		ExternalLinks:     external,
	}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
