// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writing
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - PNG encoding and thumbnail scaling
//
// # File Operations
//
//	// Write a document without leaving partial content behind
//	err := ioutils.WriteFile(ctx, "/builds/BUILD_LOG_B1.md", []byte(content))
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/builds/exports")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("AAL/AA:07009") // Returns "AAL_AA_07009"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	page, _ := svc.EncodePNG(ctx, img)
//	thumb, _ := svc.ResizeImage(ctx, page, 200, 200)
package ioutils
