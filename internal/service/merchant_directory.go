package service

import "github.com/unclebandit/cpas-demos/internal/model"

// indiaMerchants is the built-in directory of quick commerce merchants, in display order
var indiaMerchants = []model.Merchant{
	{
		Key:         "blinkit",
		Name:        "Blinkit",
		Category:    "Quick Commerce",
		Description: "India's last minute app - groceries delivered in 10 minutes",
		LogoEmoji:   "🛒",
		Website:     "https://blinkit.com",
		Verticals:   []string{"Grocery", "Personal Care", "Baby Care", "Pet Care"},
	},
	{
		Key:         "swiggy",
		Name:        "Swiggy",
		Category:    "Food & Grocery Delivery",
		Description: "Food, groceries, and more delivered to your door",
		LogoEmoji:   "🍔",
		Website:     "https://swiggy.com",
		Verticals:   []string{"Food", "Grocery (Instamart)", "Genie"},
	},
	{
		Key:         "zepto",
		Name:        "Zepto",
		Category:    "Quick Commerce",
		Description: "Groceries delivered in 10 minutes",
		LogoEmoji:   "⚡",
		Website:     "https://zepto.com",
		Verticals:   []string{"Grocery", "Fruits & Vegetables", "Dairy", "Personal Care"},
	},
	{
		Key:         "bigbasket",
		Name:        "BigBasket",
		Category:    "Online Grocery",
		Description: "India's largest online grocery store",
		LogoEmoji:   "🧺",
		Website:     "https://bigbasket.com",
		Verticals:   []string{"Grocery", "Fresh Produce", "Household", "Beauty"},
	},
	{
		Key:         "amazon_fresh",
		Name:        "Amazon Fresh",
		Category:    "Quick Commerce",
		Description: "Fresh groceries from Amazon",
		LogoEmoji:   "📦",
		Website:     "https://amazon.in/fresh",
		Verticals:   []string{"Grocery", "Fresh", "Household"},
	},
}

// MerchantDirectory is an immutable lookup over the built-in merchants
type MerchantDirectory struct {
	merchants []model.Merchant
}

// NewMerchantDirectory fills in configured Business Manager ids; the rest get a placeholder
func NewMerchantDirectory(businessIDs map[string]string) *MerchantDirectory {
	merchants := make([]model.Merchant, len(indiaMerchants))
	for i, m := range indiaMerchants {
		m.Verticals = append([]string(nil), m.Verticals...)
		m.BusinessID = businessIDs[m.Key]
		if m.BusinessID == "" {
			m.BusinessID = model.PlaceholderBusinessID(m.Key)
		}
		merchants[i] = m
	}
	return &MerchantDirectory{merchants: merchants}
}

func (d *MerchantDirectory) List() []model.Merchant {
	return append([]model.Merchant(nil), d.merchants...)
}

// Active lists merchants with a real Business Manager id
func (d *MerchantDirectory) Active() []model.Merchant {
	var active []model.Merchant
	for _, m := range d.merchants {
		if m.Active() {
			active = append(active, m)
		}
	}
	return active
}

func (d *MerchantDirectory) ByKey(key string) (model.Merchant, bool) {
	for _, m := range d.merchants {
		if m.Key == key {
			return m, true
		}
	}
	return model.Merchant{}, false
}

func (d *MerchantDirectory) ByBusinessID(businessID string) (model.Merchant, bool) {
	for _, m := range d.merchants {
		if m.BusinessID == businessID {
			return m, true
		}
	}
	return model.Merchant{}, false
}
