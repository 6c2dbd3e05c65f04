package extractor

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/webguardai/webguard/internal/model"
)

// MetadataExtractor derives features from the HTTP exchange surrounding the
// document: status, headers and redirect behavior.
type MetadataExtractor struct {
	timeout time.Duration
}

func NewMetadataExtractor(timeout time.Duration) *MetadataExtractor {
	return &MetadataExtractor{timeout: timeout}
}

func (e *MetadataExtractor) Name() string { return model.FeatureMetadata }

func (e *MetadataExtractor) Timeout() time.Duration { return e.timeout }

func (e *MetadataExtractor) Extract(_ context.Context, doc *model.Document) (any, error) {
	mf := &model.MetadataFeatures{
		StatusCode:    doc.StatusCode,
		ContentType:   doc.Headers.Get("Content-Type"),
		Server:        doc.Headers.Get("Server"),
		HeaderCount:   len(doc.Headers),
		Redirected:    doc.Redirected(),
		BodySizeBytes: len(doc.Body),
	}

	if mf.Redirected {
		mf.CrossHostHop = !strings.EqualFold(hostOf(doc.URL), hostOf(doc.FinalURL))
	}

	// Header features above survive even when the body is not parseable.
	q, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		mf.MissingTitle = true
		return mf, nil
	}

	mf.MissingTitle = strings.TrimSpace(q.Find("title").First().Text()) == ""
	q.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("http-equiv")
		if strings.EqualFold(v, "refresh") {
			mf.MetaRefresh = true
			return false
		}
		return true
	})
	return mf, nil
}
