package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/webguardai/webguard/internal/model"
)

// Brand names whose logos phishing pages imitate. Matched against img alt
// text and src paths, lowercased.
var logoHints = []string{
	"logo", "paypal", "apple", "microsoft", "google", "amazon", "netflix", "bank",
}

// ImageExtractor catalogs <img> elements: externally hosted images, brand
// logo lookalikes, tracking pixels and inline data URIs.
type ImageExtractor struct {
	timeout time.Duration
}

func NewImageExtractor(timeout time.Duration) *ImageExtractor {
	return &ImageExtractor{timeout: timeout}
}

func (e *ImageExtractor) Name() string { return model.FeatureImage }

func (e *ImageExtractor) Timeout() time.Duration { return e.timeout }

func (e *ImageExtractor) Extract(_ context.Context, doc *model.Document) (any, error) {
	q, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	pageHost := hostOf(doc.URL)
	imf := &model.ImageFeatures{}

	q.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")

		info := model.ImageInfo{Src: src, Alt: alt}
		info.DataURI = strings.HasPrefix(src, "data:")
		if !info.DataURI {
			h := hostOf(src)
			info.External = h != "" && !strings.EqualFold(h, pageHost)
		}
		info.LogoLike = looksLikeLogo(src, alt)
		info.Tracking = isTrackingPixel(s)

		imf.Images = append(imf.Images, info)
		if info.External {
			imf.ExternalCount++
		}
		if info.LogoLike {
			imf.LogoLikeCount++
		}
		if info.Tracking {
			imf.TrackingCount++
		}
		if info.DataURI {
			imf.DataURICount++
		}
	})
	return imf, nil
}

func looksLikeLogo(src, alt string) bool {
	src = strings.ToLower(src)
	alt = strings.ToLower(alt)
	for _, hint := range logoHints {
		if strings.Contains(src, hint) || strings.Contains(alt, hint) {
			return true
		}
	}
	return false
}

// isTrackingPixel flags explicitly 1x1-sized images.
func isTrackingPixel(s *goquery.Selection) bool {
	w, _ := s.Attr("width")
	h, _ := s.Attr("height")
	return (w == "1" || w == "0") && (h == "1" || h == "0")
}
