package model

import (
	"strings"
	"time"
)

// Placeholder values mean "not yet provided". They are distinct from an
// empty string in the text format but count as missing for validation.
const (
	PlaceholderTBD  = "TBD"
	PlaceholderHash = "-"
)

// Default test names seeded into every new record. Validation requires
// each of them to have left the Pending state.
var DefaultTests = []string{"Boot Test", "Basic Functionality", "OTA Update Test"}

// Record represents one Android OS image build and everything the build log
// documents about it.
//
// Record is the single mutable aggregate of the application:
//   - Build information (number, date, device, type, versions)
//   - Artifact files with sizes and content hashes
//   - Changelog: app updates plus four free-text blocks
//   - Known issues and test results
//   - Dependencies, release channels and sign-off
//
// List entries (files, apps, issues, tests) have no identity of their own;
// they are identified by position and compared by content.
//
// Example:
//
//	rec := NewRecord(time.Now())
//	rec.BuildNumber = "AAL-AA-07009-01"
//	rec.Device = "GPN600-001"
//	if err := rec.Validate(); err != nil {
//	    fmt.Println(err) // lists the missing mandatory fields
//	}
type Record struct {
	// BuildNumber is the user-facing key of the build. It is used for
	// de-duplication on load and for default export file names.
	BuildNumber string

	// BuildDate is the day the image was built. Only the date part is persisted.
	BuildDate time.Time

	// Device is the target device, e.g. "GPN600-001".
	Device string

	// BuildType is one of user, userdebug or eng.
	BuildType BuildType

	AndroidVersion string
	SecurityPatch  string
	KernelVersion  string
	PreviousBuild  string

	// Files lists the build artifacts in display order.
	Files []*BuildFile

	// AppUpdates lists updated system apps in display order.
	AppUpdates []*AppUpdate

	// Free-text changelog blocks, one bullet per non-empty line.
	SystemModifications  string
	KernelDriverChanges  string
	ConfigurationChanges string
	RemovedComponents    string

	KnownIssues []*KnownIssue
	TestResults []*TestResult

	BootloaderVersion   string
	CompatibleOTABuilds string

	// Release channels. At least one must be selected for a valid record.
	InternalTesting  bool
	CustomerRelease  bool
	SpecificCustomer string

	CustomerReleaseNotes string

	BuiltBy    string
	ReviewedBy string

	// ApprovedForRelease is nil until the build is approved.
	ApprovedForRelease *time.Time

	LastUpdated time.Time

	// SourcePath is the Markdown document the record was loaded from or last
	// saved to. Not persisted in the document itself.
	SourcePath string

	// AutoCompleted marks records synthesized from artifact file names.
	// Their build number and device were inferred, so validation does not
	// require them. Not persisted.
	AutoCompleted bool
}

// NewRecord creates an empty record for a new build.
//
// The record starts as a "user" build recommended for internal testing,
// dated now, with the three default tests seeded as Pending.
func NewRecord(now time.Time) *Record {
	r := &Record{
		BuildDate:       now,
		BuildType:       BuildTypeUser,
		InternalTesting: true,
		LastUpdated:     now,
	}
	for _, name := range DefaultTests {
		r.TestResults = append(r.TestResults, NewTestResult(name, ResultPending, ""))
	}
	return r
}

// Clone returns a deep copy of r. Entries, details and the approval date
// are copied, so the clone can be edited or stamped independently.
func (r *Record) Clone() *Record {
	c := *r
	c.Files = cloneEach(r.Files)
	c.KnownIssues = cloneEach(r.KnownIssues)
	c.TestResults = cloneEach(r.TestResults)
	c.AppUpdates = cloneEach(r.AppUpdates)
	for _, app := range c.AppUpdates {
		app.Details = append([]string(nil), app.Details...)
	}
	if r.ApprovedForRelease != nil {
		approved := *r.ApprovedForRelease
		c.ApprovedForRelease = &approved
	}
	return &c
}

func cloneEach[T any](items []*T) []*T {
	if items == nil {
		return nil
	}
	out := make([]*T, len(items))
	for i, item := range items {
		v := *item
		out[i] = &v
	}
	return out
}

// DisplayName returns the label used in build lists.
func (r *Record) DisplayName() string {
	if r.BuildNumber == "" {
		return "New Build"
	}
	return r.BuildNumber + " - " + r.BuildDate.Format("2006-01-02")
}

// ShortName returns a compact label for narrow layouts.
func (r *Record) ShortName() string {
	if r.BuildNumber == "" {
		return "New"
	}
	if len(r.BuildNumber) > 10 {
		return r.BuildNumber[:10] + "..."
	}
	return r.BuildNumber
}

// AddFile appends a file entry.
func (r *Record) AddFile(f *BuildFile) {
	r.Files = append(r.Files, f)
}

// FindApp returns the first app update with the given name, or nil.
func (r *Record) FindApp(name string) *AppUpdate {
	for _, app := range r.AppUpdates {
		if app.Name == name {
			return app
		}
	}
	return nil
}

// SplitLines turns a free-text block into bullet lines.
//
// The block is split on newlines, empty lines are dropped and every
// remaining line is trimmed. Lines that are only whitespace survive as
// empty strings, mirroring how the document format has always treated them.
//
// Example:
//
//	SplitLines("first\n\n  second \n") // []string{"first", "second"}
func SplitLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines
}

// IsPlaceholder reports whether a value is missing: blank, "TBD" or "-".
func IsPlaceholder(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, PlaceholderTBD) || v == PlaceholderHash
}
