package domain

import "time"

// AssetKind enumerates asset media types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// AssetMeta carries dimension and variation metadata stored as JSONB.
type AssetMeta struct {
	Width           int `json:"width,omitempty"`
	Height          int `json:"height,omitempty"`
	Variation       int `json:"variation,omitempty"`
	TotalVariations int `json:"total_variations,omitempty"`
}

// Asset represents one generated media file and its storage location. Assets
// are created exactly once, on successful generation plus upload, and never
// mutated afterwards. Image assets expose a public URL only; video assets
// expose a time-limited signed URL only.
type Asset struct {
	ID              string
	JobID           string
	StoreID         string
	UserID          string
	Type            AssetKind
	Provider        string
	ProviderModel   string
	Prompt          string
	StoragePath     string
	Filename        string
	PublicURL       string
	SignedURL       string
	SignedExpiresAt *time.Time
	MIMEType        string
	Meta            AssetMeta
	CreatedAt       time.Time
}
