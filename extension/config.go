package extension

// Config holds the Lectern extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.lectern" or "lectern" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for lectern routes (default: "/v1").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxTreeDepth bounds the ancestor-path walk during resolution.
	MaxTreeDepth int `json:"max_tree_depth" mapstructure:"max_tree_depth" yaml:"max_tree_depth"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTreeDepth: 32,
	}
}
