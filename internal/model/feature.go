package model

// Extractor names used as FeatureSet keys. Scorers declare their inputs
// with these constants so registration stays typo-proof.
const (
	FeatureText     = "text"
	FeatureURL      = "url"
	FeatureMetadata = "metadata"
	FeatureImage    = "image"
)

// FeatureSet maps extractor name to that extractor's payload. An entry is
// absent when its extractor failed or timed out; absence of one entry never
// blocks the others.
type FeatureSet map[string]any

// Subset returns the entries for the given names and the first name that is
// missing, if any.
func (fs FeatureSet) Subset(names []string) (FeatureSet, string) {
	out := make(FeatureSet, len(names))
	for _, n := range names {
		v, ok := fs[n]
		if !ok {
			return nil, n
		}
		out[n] = v
	}
	return out, ""
}

// TextFeatures is the payload of the text extractor.
type TextFeatures struct {
	TextLength        int      `json:"text_length"`
	Title             string   `json:"title,omitempty"`
	SuspiciousMatches []string `json:"suspicious_matches,omitempty"`
	FormCount         int      `json:"form_count"`
	PasswordInputs    int      `json:"password_inputs"`
	ExternalLinks     int      `json:"external_links"`
}

// URLFeatures is the payload of the url extractor.
type URLFeatures struct {
	Length             int      `json:"length"`
	ContainsIP         bool     `json:"contains_ip"`
	SubdomainCount     int      `json:"subdomain_count"`
	SuspiciousPatterns []string `json:"suspicious_patterns,omitempty"`
	Punycode           bool     `json:"punycode"`
	HasUserinfo        bool     `json:"has_userinfo"`
	HyphenCount        int      `json:"hyphen_count"`
}

// MetadataFeatures is the payload of the metadata extractor.
type MetadataFeatures struct {
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type,omitempty"`
	Server        string `json:"server,omitempty"`
	HeaderCount   int    `json:"header_count"`
	Redirected    bool   `json:"redirected"`
	CrossHostHop  bool   `json:"cross_host_hop"`
	MetaRefresh   bool   `json:"meta_refresh"`
	MissingTitle  bool   `json:"missing_title"`
	BodySizeBytes int    `json:"body_size_bytes"`
}

// ImageInfo describes one <img> element found in the document.
type ImageInfo struct {
	Src      string `json:"src"`
	Alt      string `json:"alt,omitempty"`
	External bool   `json:"external"`
	LogoLike bool   `json:"logo_like"`
	Tracking bool   `json:"tracking"`
	DataURI  bool   `json:"data_uri"`
}

// ImageFeatures is the payload of the image extractor.
type ImageFeatures struct {
	Images        []ImageInfo `json:"images,omitempty"`
	ExternalCount int         `json:"external_count"`
	LogoLikeCount int         `json:"logo_like_count"`
	TrackingCount int         `json:"tracking_count"`
	DataURICount  int         `json:"data_uri_count"`
}
