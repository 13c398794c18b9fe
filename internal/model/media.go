// internal/model/media.go
package model

// AdvertisableMedia is one item of branded_content_advertisable_medias.
// The same shape answers the single-media eligibility lookup.
type AdvertisableMedia struct {
	ID                string   `json:"id"`
	Permalink         string   `json:"permalink"`
	OwnerID           string   `json:"owner_id"`
	HasPermission     bool     `json:"has_permission_for_partnership_ad"`
	EligibilityErrors []string `json:"eligibility_errors"`
}

// MediaMetrics are optional engagement numbers; nil means not available
type MediaMetrics struct {
	Likes       *int64 `json:"likes"`
	Comments    *int64 `json:"comments"`
	Reach       *int64 `json:"reach"`
	Impressions *int64 `json:"impressions"`
	Saves       *int64 `json:"saves"`
}

// MediaRecord is a row of the fetch-mode output
type MediaRecord struct {
	AdvertisableMedia
	Metrics *MediaMetrics `json:"metrics,omitempty"`
}
