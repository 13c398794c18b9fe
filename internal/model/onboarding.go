// internal/model/onboarding.go
package model

// Partnership statuses that are not Graph request statuses
const (
	PartnershipNoRequest = "no_request"
	PartnershipNotFound  = "not_found"
)

// PartnershipStatus is where a brand stands with one merchant
type PartnershipStatus struct {
	Status      string    `json:"status"`
	RequestID   string    `json:"request_id,omitempty"`
	CreatedTime string    `json:"created_time,omitempty"`
	Merchant    *Merchant `json:"merchant,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// SuggestedPartner is a partner the Graph API suggests, matched against the
// merchant directory when its business id is known
type SuggestedPartner struct {
	Partner
	Merchant *Merchant `json:"merchant,omitempty"`
}

// OnboardingStatus summarises the agency checklist for a brand and a merchant
type OnboardingStatus struct {
	ConnectionRequest bool           `json:"connection_request"`
	RequestApproved   bool           `json:"request_approved"`
	CatalogAvailable  bool           `json:"catalog_available"`
	AdAccountReady    bool           `json:"ad_account_ready"`
	CampaignCreated   bool           `json:"campaign_created"`
	Details           map[string]any `json:"details"`
}

// AgencySession is the agency workflow state carried by the client between calls
type AgencySession struct {
	SelectedMerchant   string `json:"selected_merchant,omitempty"`
	SetupValidated     bool   `json:"setup_validated"`
	CreatedAdAccountID string `json:"created_ad_account_id,omitempty"`
	SelectedCatalogID  string `json:"selected_catalog_id,omitempty"`
}

// Brand onboarding wizard steps
const (
	StepSubmitDetails = iota + 1
	StepAwaitApproval
	StepCreateAdAccount
	StepChooseCatalog
	StepLaunchCampaign
)

// BrandOnboardingState is the brand self-service wizard state. The client
// sends it back with every step; the server keeps nothing.
type BrandOnboardingState struct {
	Step            int    `json:"step"`
	AccessToken     string `json:"access_token,omitempty"`
	BrandBusinessID string `json:"brand_business_id,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	AdAccountID     string `json:"ad_account_id,omitempty"`
	CatalogID       string `json:"catalog_id,omitempty"`
}

// Wizard actions
const (
	ActionSubmit = "submit"
	ActionCheck  = "check"
	ActionCreate = "create"
	ActionSelect = "select"
	ActionLaunch = "launch"
	ActionSkip   = "skip"
	ActionReset  = "reset"
)

// BrandOnboardingInput is what the brand supplies at the current step
type BrandOnboardingInput struct {
	Action       string `json:"action" validate:"required,oneof=submit check create select launch skip reset"`
	AccessToken  string `json:"access_token,omitempty"`
	BrandBMID    string `json:"brand_business_id,omitempty"`
	BrandName    string `json:"brand_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	CatalogID    string `json:"catalog_id,omitempty"`
	AdAccountID  string `json:"ad_account_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	// DailyBudget in INR; converted to paisa when launching
	DailyBudget int `json:"daily_budget,omitempty"`
}

// BrandOnboardingResult is the new state plus whatever the step produced
type BrandOnboardingResult struct {
	State    BrandOnboardingState `json:"state"`
	Message  string               `json:"message,omitempty"`
	Status   string               `json:"status,omitempty"`
	Catalogs []CatalogSegment     `json:"catalogs,omitempty"`
	Campaign *CampaignResult      `json:"campaign,omitempty"`
}

// AgencyValidation is filled up to the first check that failed
type AgencyValidation struct {
	TokenValid  bool      `json:"token_valid"`
	AgencyValid bool      `json:"agency_valid"`
	BrandValid  bool      `json:"brand_valid"`
	UserInfo    *User     `json:"user_info"`
	AgencyInfo  *Business `json:"agency_info"`
	BrandInfo   *Business `json:"brand_info"`
}

type MerchantValidation struct {
	TokenValid    bool      `json:"token_valid"`
	MerchantValid bool      `json:"merchant_valid"`
	UserInfo      *User     `json:"user_info"`
	MerchantInfo  *Business `json:"merchant_info"`
}

type DashboardStats struct {
	PendingRequests  int `json:"pending_requests"`
	ApprovedRequests int `json:"approved_requests"`
	ActivePartners   int `json:"active_partners"`
	CatalogSegments  int `json:"catalog_segments"`
}

type BulkDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BulkResult reports a bulk approve or reject, one detail per id
type BulkResult struct {
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Details    []BulkDetail `json:"details"`
}
