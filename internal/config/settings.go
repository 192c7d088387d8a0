package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Workspace settings
	WorkspacePath string `json:"workspace_path" yaml:"workspace_path"`
	ExportPath    string `json:"export_path" yaml:"export_path"`

	// Checksums
	ChecksumConcurrency int `json:"checksum_concurrency" yaml:"checksum_concurrency"`

	// Export settings
	PreviewDPI  int    `json:"preview_dpi" yaml:"preview_dpi"`
	PDFPageSize string `json:"pdf_page_size" yaml:"pdf_page_size"` // A4, Letter, Legal

	// Output
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		WorkspacePath:       "",
		ExportPath:          "",
		ChecksumConcurrency: 4,
		PreviewDPI:          150,
		PDFPageSize:         "A4",
		Verbose:             false,
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "buildlog", "config.yaml")
}

// Load reads settings from a YAML or JSON file.
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// Missing keys keep their defaults; a missing file yields DefaultSettings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, err
	}

	settings.normalize()
	return settings, nil
}

// Save writes settings to a YAML or JSON file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ExportDir returns where exports go when no output path is given:
// ExportPath if set, otherwise the workspace.
func (s *Settings) ExportDir() string {
	if s.ExportPath != "" {
		return s.ExportPath
	}
	return s.WorkspacePath
}

// normalize replaces out-of-range values with defaults.
func (s *Settings) normalize() {
	def := DefaultSettings()
	if s.ChecksumConcurrency < 1 {
		s.ChecksumConcurrency = def.ChecksumConcurrency
	}
	if s.PreviewDPI < 1 {
		s.PreviewDPI = def.PreviewDPI
	}
	if s.PDFPageSize == "" {
		s.PDFPageSize = def.PDFPageSize
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
