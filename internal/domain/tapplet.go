package domain

import "encoding/json"

// TappletConfigFile is the name of the config document served from a tapplet's origin
const TappletConfigFile = "tapplet.config.json"

// DefaultCSP is applied when a tapplet does not declare its own content security policy
const DefaultCSP = "default-src 'self'"

// SupportedChain is a network a tapplet declares it can run on
type SupportedChain string

const (
	ChainMainnet  SupportedChain = "MAINNET"
	ChainStagenet SupportedChain = "STAGENET"
	ChainNextnet  SupportedChain = "NEXTNET"
)

// TappletConfig is the document fetched from {origin}/tapplet.config.json
type TappletConfig struct {
	PackageName    string            `json:"packageName"`
	Version        string            `json:"version"`
	SupportedChain []SupportedChain  `json:"supportedChain"`
	Permissions    []json.RawMessage `json:"permissions,omitempty"`
}

// TappletPermissions is the declarative permission set a signer is scoped with.
// Enforcement belongs to the wallet daemon.
type TappletPermissions struct {
	RequiredPermissions []json.RawMessage `json:"requiredPermissions"`
	OptionalPermissions []json.RawMessage `json:"optionalPermissions"`
}

// DevTapplet is a tapplet served by a developer from a local endpoint
type DevTapplet struct {
	ID          int    `yaml:"id" json:"id"`
	PackageName string `yaml:"package_name" json:"package_name"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	CSP         string `yaml:"csp,omitempty" json:"csp,omitempty"`
}

// InstalledTapplet is a tapplet extracted into the data directory and served by the host
type InstalledTapplet struct {
	ID          int    `yaml:"id" json:"id"`
	PackageName string `yaml:"package_name" json:"package_name"`
	Version     string `yaml:"version" json:"version"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Path        string `yaml:"path" json:"path"`
	CSP         string `yaml:"csp,omitempty" json:"csp,omitempty"`
}

// ActiveTapplet is the tapplet currently rendered in the host frame
type ActiveTapplet struct {
	TappletID      int                `json:"tapplet_id"`
	DisplayName    string             `json:"display_name"`
	Source         string             `json:"source"`
	Version        string             `json:"version"`
	SupportedChain []SupportedChain   `json:"supportedChain"`
	Permissions    TappletPermissions `json:"permissions"`
}

// WindowSize is the last known size of the embedded tapplet viewport
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
