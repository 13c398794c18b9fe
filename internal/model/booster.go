// internal/model/booster.go
package model

import (
	"sort"
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Column names the create pipeline reads from an input row
const (
	ColPermalink    = "permalink"
	ColAdCode       = "ad_code"
	ColCTAType      = "cta_type"
	ColLink         = "link"
	ColAppLink      = "app_link"
	ColAdName       = "ad_name"
	ColAdSetID      = "ad_set_id"
	ColProductSetID = "product_set_id"
)

// ResultColumns are appended to every output row, in this order
var ResultColumns = []string{"status", "error", "video_id", "creative_id", "published_ad_id"}

// InputRow is one CSV record kept as text, with the header order it came in
type InputRow struct {
	Columns []string          `json:"-"`
	Values  map[string]string `json:"values"`
}

// NewInputRow builds a row. Without an explicit header the columns are sorted by name.
func NewInputRow(columns []string, values map[string]string) InputRow {
	if values == nil {
		values = map[string]string{}
	}
	if columns == nil {
		columns = make([]string, 0, len(values))
		for k := range values {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	return InputRow{Columns: columns, Values: values}
}

func (r InputRow) Get(col string) string {
	return r.Values[col]
}

// RowResult is the outcome of one input row. Ids are filled up to the
// furthest stage that succeeded.
type RowResult struct {
	Index         int      `json:"row_index"`
	Input         InputRow `json:"input"`
	Status        string   `json:"status"`
	Error         string   `json:"error"`
	VideoID       string   `json:"video_id"`
	CreativeID    string   `json:"creative_id"`
	PublishedAdID string   `json:"published_ad_id"`
}

type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// CreateAdsRequest carries the batch-wide identifiers of a create run
type CreateAdsRequest struct {
	IGAccountID    string `json:"ig_account_id" validate:"required"`
	AdAccountID    string `json:"ad_account_id" validate:"required"`
	FacebookPageID string `json:"facebook_page_id" validate:"required"`
}

type FetchMediasRequest struct {
	IGAccountID        string `json:"ig_account_id" validate:"required"`
	CreatorUsername    string `json:"creator_username,omitempty"`
	OnlyWithPermission bool   `json:"only_with_permission"`
	IncludeMetrics     bool   `json:"include_metrics"`
	Limit              int    `json:"limit" validate:"gte=0"`
}

// Run is the ledger header of one booster invocation
type Run struct {
	ID         string     `db:"id" json:"id"`
	Mode       string     `db:"mode" json:"mode"`
	Source     string     `db:"source" json:"source"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Total      int        `db:"total" json:"total"`
	Succeeded  int        `db:"succeeded" json:"succeeded"`
	Failed     int        `db:"failed" json:"failed"`
}

// RowResultEvent is what gets published for each finished row
type RowResultEvent struct {
	RunID         string `json:"run_id"`
	RowIndex      int    `json:"row_index"`
	AdName        string `json:"ad_name"`
	Status        string `json:"status"`
	Error         string `json:"error"`
	VideoID       string `json:"video_id"`
	CreativeID    string `json:"creative_id"`
	PublishedAdID string `json:"published_ad_id"`
}

// Event builds the published form of a row result
func (r RowResult) Event(runID string) RowResultEvent {
	return RowResultEvent{
		RunID:         runID,
		RowIndex:      r.Index,
		AdName:        r.Input.Get(ColAdName),
		Status:        r.Status,
		Error:         r.Error,
		VideoID:       r.VideoID,
		CreativeID:    r.CreativeID,
		PublishedAdID: r.PublishedAdID,
	}
}

// Ledger event types
const (
	EventRunStarted  = "run_started"
	EventRowResult   = "row_result"
	EventRunFinished = "run_finished"
)

// LedgerEvent is the envelope published on the results queue
type LedgerEvent struct {
	Type    string          `json:"type"`
	RunID   string          `json:"run_id"`
	Run     *Run            `json:"run,omitempty"`
	Row     *RowResultEvent `json:"row,omitempty"`
	Summary *Summary        `json:"summary,omitempty"`
}
