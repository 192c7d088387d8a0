// Package project manages the build logs of a workspace directory.
//
// # Manager
//
// The Manager ties the other packages together:
//
//  1. Discover artifacts in the workspace (scanner)
//  2. Parse README*.md and BUILD_LOG*.md documents (markdown)
//  3. Merge both into one build list, synthesizing records for undocumented
//     artifacts
//  4. Save, export, import and delete documents
//  5. Hash artifacts concurrently
//
// # Basic Usage
//
//	manager := project.NewManager(settings, func(event project.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := manager.SetWorkspace("/builds"); err != nil {
//	    log.Fatal(err)
//	}
//
//	records, err := manager.LoadAll(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec := project.Find(records, "AAL-AA-07009-01")
//	if err := rec.Validate(); err == nil {
//	    path, err := manager.Save(ctx, rec)
//	}
//
// The Manager does not validate records; callers decide whether an invalid
// record may be saved or exported.
//
// # Concurrency
//
// ComputeChecksums hashes up to settings.ChecksumConcurrency files at a
// time. Each worker writes only its own file entry.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
package project
