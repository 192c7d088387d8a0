// Package edit applies textual edits to build records.
//
// The same small grammar backs the command line flags of buildlog and the
// edit prompt of the terminal UI:
//
//	field=value                          SetField / Assign
//	Name=Result[|notes]                  SetTest
//	Issue|Severity|Status|Workaround     AddIssue
//	Name|Path|Version|Changes            SetApp
//	App=detail line                      AddAppDetail
//
// Enumerated values (build type, test result, severity, status) are matched
// ignoring case and rejected when unknown. Dates are YYYY-MM-DD.
//
// Apply wraps all of them behind a verb for single-line input:
//
//	err := edit.Apply(rec, "test Boot Test=Pass")
package edit
