package wiki

// Config holds file-based configuration loaded at startup. Settings that can
// change at runtime live in the Setting table instead (see RuntimeConfig).
type Config struct {
	DatabaseFile string `yaml:"dbfile"`
	Host         string `yaml:"host"`
	BaseURL      string `yaml:"base_url"`
	LogFormat    string `yaml:"log_format"`
	LogLevel     string `yaml:"log_level"`
}
