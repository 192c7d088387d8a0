// Package model defines the build log record and its entries.
//
// # Record
//
// Record is the in-memory form of one build log document:
//
//	rec := model.NewRecord(time.Now())
//	rec.BuildNumber = "AAL-AA-07009-01"
//	rec.AddFile(model.NewBuildFile("gpn600_001-AAL-AA-07009-01.20260130.062740.zip", "1.5 GB"))
//
// NewRecord seeds the three default tests (Boot Test, Basic Functionality,
// OTA Update Test) as Pending.
//
// # Validation
//
// Validation is computed from the current values, never stored:
//
//	if err := rec.Validate(); errors.Is(err, model.ErrInvalidRecord) {
//	    fmt.Println(err) // missing mandatory fields: Built by, Reviewed by, ...
//	}
//
// # Placeholders
//
// "TBD" and "-" mean "not provided yet". IsPlaceholder treats them, and blank
// strings, as missing.
package model
