// Package dto provides the JSON document form of a build record.
//
// The Markdown document is the primary format. The JSON form is a
// machine-readable export for tooling that prefers structured data, and it
// can be imported back:
//
//	data, err := dto.Marshal(rec)
//	os.WriteFile("BUILD_LOG_B1.json", data, 0644)
//
//	rec, err := dto.Unmarshal(data, time.Now())
//
// Dates are written as RFC 3339. On input, JSONTime also accepts the
// "2006-01-02" and "2006-01-02 15:04:05" layouts used by the Markdown
// document. Enum values (build type, severity, status, result) are stored
// as plain strings and kept verbatim.
package dto
