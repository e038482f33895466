package model

import (
	"strings"
	"time"
)

type ProductSKU string

const (
	ProductWorkshop ProductSKU = "workshop"
	ProductCohort   ProductSKU = "cohort"
	ProductFlagship ProductSKU = "flagship-course"
)

// ResourceType classifies the gated assets unlocked by an access token.
type ResourceType string

const (
	ResourceRecording ResourceType = "recording"
	ResourceSlides    ResourceType = "slides"
	ResourceDashboard ResourceType = "dashboard"
	ResourceTemplate  ResourceType = "template"
	ResourceCommunity ResourceType = "community"
)

// Resource is one gated asset. ExpiresAt is filled at resolve time and
// mirrors the bearer token's own expiry.
type Resource struct {
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Type      ResourceType `json:"type"`
	ExpiresAt time.Time    `json:"expires_at,omitzero"`
}

// Product is a fixed-price SKU. Prices and TTLs are pre-known; there is no
// per-order pricing.
type Product struct {
	SKU        ProductSKU
	Prefix     string // merchant transaction id prefix, e.g. "WS"
	PriceMinor int64  // minor units (paise)
	Currency   string
	TokenTTL   time.Duration
	MeetingURL string
	UpsellURL  string
	Resources  []Resource

	// DeferEnrollment delays the durable enrollment insert until the buyer
	// completes the preview asset (two-phase commitment).
	DeferEnrollment bool
	// AllowFallback routes PSP failures to the dummy-pay path instead of
	// surfacing them to the buyer.
	AllowFallback bool
}

type Catalog map[ProductSKU]*Product

func (c Catalog) BySKU(sku ProductSKU) (*Product, bool) {
	p, ok := c[sku]
	return p, ok
}

// ByTransactionID resolves the product from a merchant transaction id of the
// form "{prefix}-{epochMillis}".
func (c Catalog) ByTransactionID(txnID string) (*Product, bool) {
	prefix, _, ok := strings.Cut(txnID, "-")
	if !ok {
		return nil, false
	}
	for _, p := range c {
		if p.Prefix == prefix {
			return p, true
		}
	}
	return nil, false
}

// DefaultCatalog returns the built-in product set. Override URLs and prices
// come from configuration and are applied on top of these defaults.
func DefaultCatalog() Catalog {
	return Catalog{
		ProductWorkshop: {
			SKU:           ProductWorkshop,
			Prefix:        "WS",
			PriceMinor:    9900,
			Currency:      "INR",
			TokenTTL:      48 * time.Hour,
			AllowFallback: true,
			Resources: []Resource{
				{Title: "Workshop Recording", Type: ResourceRecording},
				{Title: "Workshop Slides", Type: ResourceSlides},
				{Title: "Execution Dashboard", Type: ResourceDashboard},
				{Title: "Launch Checklist Template", Type: ResourceTemplate},
				{Title: "Private Community Invite", Type: ResourceCommunity},
			},
		},
		ProductCohort: {
			SKU:           ProductCohort,
			Prefix:        "CH",
			PriceMinor:    49900,
			Currency:      "INR",
			TokenTTL:      48 * time.Hour,
			AllowFallback: true,
			Resources: []Resource{
				{Title: "Cohort Session Recordings", Type: ResourceRecording},
				{Title: "Cohort Dashboard", Type: ResourceDashboard},
				{Title: "Working Templates", Type: ResourceTemplate},
			},
		},
		ProductFlagship: {
			SKU:             ProductFlagship,
			Prefix:          "FC",
			PriceMinor:      499900,
			Currency:        "INR",
			TokenTTL:        30 * 24 * time.Hour,
			DeferEnrollment: true,
			Resources: []Resource{
				{Title: "Course Preview", Type: ResourceRecording},
				{Title: "Curriculum Overview", Type: ResourceSlides},
			},
		},
	}
}
