package types

// Config is the application configuration, merged from config files and
// environment variables. See internal/config for loading.
type Config struct {
	// Schema is the optional JSON schema reference.
	Schema string `json:"$schema,omitempty"`

	// DocumentServerURL is the base URL of the external document server the
	// editor UI loads its script API from.
	DocumentServerURL string `json:"documentServer,omitempty"`

	// PublicHost overrides host-IP auto-detection when constructing the URLs
	// advertised to the document server. Useful when the auto-detected
	// interface is not reachable from the document server's network namespace.
	PublicHost string `json:"publicHost,omitempty"`

	// EditMode controls whether documents open editable or view-only.
	// Defaults to editable.
	EditMode *bool `json:"editMode,omitempty"`

	// Language is the editor UI language code, e.g. "en".
	Language string `json:"lang,omitempty"`

	// WatchDocuments enables on-disk change detection for open sessions.
	WatchDocuments *bool `json:"watchDocuments,omitempty"`

	// LogLevel is the minimum log level (DEBUG|INFO|WARN|ERROR).
	LogLevel string `json:"logLevel,omitempty"`
	// LogPretty enables human-readable console log output.
	LogPretty bool `json:"logPretty,omitempty"`
}

// EditModeEnabled returns the effective edit-mode flag.
func (c *Config) EditModeEnabled() bool {
	return c.EditMode == nil || *c.EditMode
}

// WatchEnabled returns the effective document-watch flag.
func (c *Config) WatchEnabled() bool {
	return c.WatchDocuments == nil || *c.WatchDocuments
}
