// Package scanner discovers build artifacts in a workspace directory and
// groups them by build identifier.
//
// # Naming Contract
//
// Artifacts are named
//
//	{device}-{buildnum}.{yyyymmdd}.{time}.{zip|json}
//
// for example gpn600_001-AAL-AA-07009-01.20260130.062740.zip. The build
// identifier of that file is "AAL-AA-07009-01.20260130.062740".
//
// # Scanning
//
//	s := scanner.NewScanner()
//	files, err := s.Scan("/builds")          // all .zip/.json files
//	ids, err := s.UniqueIdentifiers("/builds") // newest first
//	rec, err := s.BuildRecordFromFiles("/builds", ids[0])
//
// # Checksums
//
// ComputeHash streams a file through SHA-256. It honours context
// cancellation between chunks and reports progress through an optional
// callback:
//
//	sum, err := scanner.ComputeHash(ctx, path, nil)
package scanner
