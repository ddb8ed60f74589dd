package domain

const (
	// UnconfiguredAPIKey is the placeholder credential shipped with a fresh install.
	UnconfiguredAPIKey = "your_alibaba_api_key_here"

	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"
	DefaultModel   = "wan2.2-t2i-flash"

	DefaultImageCount = 1
	DefaultImageSize  = "1024*1024"
	DefaultStyle      = "photographic"
	DefaultQuality    = "standard"

	DefaultToolbarPosition = "auto"
)

// GenerationParams are the per-request knobs sent to the remote service.
type GenerationParams struct {
	N       int    `json:"n"`
	Size    string `json:"size"`
	Style   string `json:"style"`
	Quality string `json:"quality"`
}

// InterfaceSettings are UI preferences owned by the config but only read by
// external surfaces.
type InterfaceSettings struct {
	ToolbarPosition         string `json:"toolbarPosition"`
	EnableKeyboardShortcuts bool   `json:"enableKeyboardShortcuts"`
}

// Config is the merged configuration object.
type Config struct {
	BaseURL           string            `json:"baseUrl"`
	APIKey            string            `json:"apiKey"`
	Model             string            `json:"model"`
	DefaultParams     GenerationParams  `json:"defaultParams"`
	InterfaceSettings InterfaceSettings `json:"interfaceSettings"`
}

// DefaultGenerationParams returns the documented parameter defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		N:       DefaultImageCount,
		Size:    DefaultImageSize,
		Style:   DefaultStyle,
		Quality: DefaultQuality,
	}
}

// DefaultInterfaceSettings returns the documented UI defaults.
func DefaultInterfaceSettings() InterfaceSettings {
	return InterfaceSettings{
		ToolbarPosition:         DefaultToolbarPosition,
		EnableKeyboardShortcuts: false,
	}
}

// DefaultConfig builds a config from documented defaults only.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APIKey:            UnconfiguredAPIKey,
		Model:             DefaultModel,
		DefaultParams:     DefaultGenerationParams(),
		InterfaceSettings: DefaultInterfaceSettings(),
	}
}

// HasCredentials reports whether the api key is set to something other than
// the placeholder.
func (c Config) HasCredentials() bool {
	return c.APIKey != "" && c.APIKey != UnconfiguredAPIKey
}

// PartialParams carries only the parameter fields a caller wants to change.
type PartialParams struct {
	N       *int    `json:"n,omitempty"`
	Size    *string `json:"size,omitempty"`
	Style   *string `json:"style,omitempty"`
	Quality *string `json:"quality,omitempty"`
}

// PartialInterfaceSettings carries only the UI fields a caller wants to change.
type PartialInterfaceSettings struct {
	ToolbarPosition         *string `json:"toolbarPosition,omitempty"`
	EnableKeyboardShortcuts *bool   `json:"enableKeyboardShortcuts,omitempty"`
}

// PartialConfig is a sparse config; nil fields keep the baseline value.
type PartialConfig struct {
	BaseURL           *string                   `json:"baseUrl,omitempty"`
	APIKey            *string                   `json:"apiKey,omitempty"`
	Model             *string                   `json:"model,omitempty"`
	DefaultParams     *PartialParams            `json:"defaultParams,omitempty"`
	InterfaceSettings *PartialInterfaceSettings `json:"interfaceSettings,omitempty"`
}

// Merge applies p over the params and returns the result. Keys present in p
// win; keys only in the receiver are kept.
func (g GenerationParams) Merge(p *PartialParams) GenerationParams {
	if p == nil {
		return g
	}
	if p.N != nil {
		g.N = *p.N
	}
	if p.Size != nil {
		g.Size = *p.Size
	}
	if p.Style != nil {
		g.Style = *p.Style
	}
	if p.Quality != nil {
		g.Quality = *p.Quality
	}
	return g
}

// Merge applies p over the settings and returns the result.
func (s InterfaceSettings) Merge(p *PartialInterfaceSettings) InterfaceSettings {
	if p == nil {
		return s
	}
	if p.ToolbarPosition != nil {
		s.ToolbarPosition = *p.ToolbarPosition
	}
	if p.EnableKeyboardShortcuts != nil {
		s.EnableKeyboardShortcuts = *p.EnableKeyboardShortcuts
	}
	return s
}

// Overlay returns a new Config with p layered over c. The nested structures
// are merged one level deep, top-level fields are replaced. c is a value, so
// the caller's baseline is never touched.
func (c Config) Overlay(p *PartialConfig) Config {
	if p == nil {
		return c
	}
	if p.BaseURL != nil {
		c.BaseURL = *p.BaseURL
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	c.DefaultParams = c.DefaultParams.Merge(p.DefaultParams)
	c.InterfaceSettings = c.InterfaceSettings.Merge(p.InterfaceSettings)
	return c
}

// Redacted hides the api key for logging and broadcasting.
func (c Config) Redacted() Config {
	if c.HasCredentials() {
		key := c.APIKey
		if len(key) > 6 {
			c.APIKey = key[:3] + "***" + key[len(key)-3:]
		} else {
			c.APIKey = "***"
		}
	}
	return c
}
