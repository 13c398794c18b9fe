// internal/model/graph.go
package model

// Collaboration request statuses as returned by the Graph API
const (
	RequestPending    = "PENDING"
	RequestApproved   = "APPROVED"
	RequestRejected   = "REJECTED"
	RequestInProgress = "IN_PROGRESS"
)

// Who a collaboration request is sent on behalf of
const (
	RequesterBrand  = "BRAND"
	RequesterAgency = "AGENCY"
)

type BusinessRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type CollabRequest struct {
	ID               string        `json:"id"`
	RequestStatus    string        `json:"request_status"`
	CreatedTime      string        `json:"created_time,omitempty"`
	ReceiverBusiness BusinessRef   `json:"receiver_business"`
	SenderBusiness   BusinessRef   `json:"sender_business"`
	Brands           []BusinessRef `json:"brands,omitempty"`
}

type CatalogSegment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
	Vertical     string `json:"vertical,omitempty"`
}

type AdAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountStatus int    `json:"account_status"`
	Currency      string `json:"currency"`
	TimezoneName  string `json:"timezone_name"`
}

type Business struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	PrimaryPage        *BusinessRef `json:"primary_page,omitempty"`
	VerificationStatus string       `json:"verification_status,omitempty"`
}

// User is the owner of an access token
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Partner is an entry of the suggested-partners or collaborative-ads merchants lists
type Partner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CampaignResult holds the ids produced by a campaign + ad set creation
type CampaignResult struct {
	CampaignID string `json:"campaign_id"`
	AdSetID    string `json:"ad_set_id"`
}
