package navigator

// Agreement is a read-only agreement record as served by the upstream
// API. Fields beyond these are ignored.
type Agreement struct {
	ID         string      `json:"id"`
	Title      string      `json:"title,omitempty"`
	Type       string      `json:"type,omitempty"`
	Category   string      `json:"category,omitempty"`
	Status     string      `json:"status,omitempty"`
	FileName   string      `json:"file_name,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	Parties    []Party     `json:"parties,omitempty"`
	Provisions *Provisions `json:"provisions,omitempty"`
	Metadata   *Metadata   `json:"metadata,omitempty"`
}

type Party struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name_in_agreement,omitempty"`
}

type Provisions struct {
	EffectiveDate       string  `json:"effective_date,omitempty"`
	ExpirationDate      string  `json:"expiration_date,omitempty"`
	TotalAgreementValue float64 `json:"total_agreement_value,omitempty"`
}

type Metadata struct {
	CreatedAt string `json:"created_at,omitempty"`
}
