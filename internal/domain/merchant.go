package domain

import "time"

// Merchant represents one authorized Shopify store installation.
// ShopDomain is the natural key. A set UninstalledAt marks the merchant inactive
// without deleting the record.
type Merchant struct {
	ShopDomain    string     `json:"shop_domain"`
	AccessToken   string     `json:"-"` // encoded by the token codec
	InstalledAt   time.Time  `json:"installed_at"`
	UninstalledAt *time.Time `json:"uninstalled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsActive reports whether the app is currently installed on the shop.
func (m *Merchant) IsActive() bool {
	return m.UninstalledAt == nil
}

// MarkUninstalled sets the uninstallation time unless it is already set.
func (m *Merchant) MarkUninstalled(at time.Time) {
	if m.UninstalledAt != nil {
		return
	}
	t := at
	m.UninstalledAt = &t
	m.UpdatedAt = at
}

// Reinstall refreshes the token and installation time and reactivates the merchant.
// CreatedAt is preserved so the first installation stays on record.
func (m *Merchant) Reinstall(encodedToken string, installedAt time.Time) {
	m.AccessToken = encodedToken
	m.InstalledAt = installedAt
	m.UninstalledAt = nil
	m.UpdatedAt = installedAt
	if m.CreatedAt.IsZero() {
		m.CreatedAt = installedAt
	}
}
