// Package config provides configuration management for the build log tools.
//
// This package handles:
//   - Loading and saving settings from YAML or JSON files
//   - Default configuration values
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 4 concurrent checksum workers
//	// 150 DPI previews, A4 PDF pages
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// The format follows the extension: .yaml and .yml are YAML, anything
// else is JSON. A YAML file looks like:
//
//	workspace_path: /builds
//	export_path: /builds/exports
//	checksum_concurrency: 8
//	preview_dpi: 200
//	pdf_page_size: Letter
//	verbose: true
//
// # Saving Settings
//
//	settings.WorkspacePath = "/builds"
//	err := settings.Save("/path/to/config.yaml")
package config
