// internal/model/merchant.go
package model

import "strings"

const placeholderPrefix = "PLACEHOLDER"

type Merchant struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	BusinessID  string   `json:"business_id"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	LogoEmoji   string   `json:"logo_emoji"`
	Website     string   `json:"website"`
	Verticals   []string `json:"verticals"`
}

// PlaceholderBusinessID is used for merchants without a configured Business Manager
func PlaceholderBusinessID(key string) string {
	return placeholderPrefix + "_" + strings.ToUpper(key) + "_BM_ID"
}

// Active reports whether the merchant has a real Business Manager id
func (m Merchant) Active() bool {
	return m.BusinessID != "" && !strings.HasPrefix(m.BusinessID, placeholderPrefix)
}
