package model

// BuildType is the Android build variant.
type BuildType string

const (
	BuildTypeUser      BuildType = "user"
	BuildTypeUserdebug BuildType = "userdebug"
	BuildTypeEng       BuildType = "eng"
)

// BuildTypeOptions lists the selectable build variants in display order.
func BuildTypeOptions() []BuildType {
	return []BuildType{BuildTypeUser, BuildTypeUserdebug, BuildTypeEng}
}

// Severity grades a known issue.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// SeverityOptions lists the selectable severities in display order.
func SeverityOptions() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// IssueStatus tracks a known issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "Open"
	StatusInProgress IssueStatus = "In Progress"
	StatusFixed      IssueStatus = "Fixed"
	StatusWontFix    IssueStatus = "Won't Fix"
)

// StatusOptions lists the selectable issue states in display order.
func StatusOptions() []IssueStatus {
	return []IssueStatus{StatusOpen, StatusInProgress, StatusFixed, StatusWontFix}
}

// Result is the outcome of a test.
type Result string

const (
	ResultPass    Result = "Pass"
	ResultFail    Result = "Fail"
	ResultPending Result = "Pending"
	ResultSkipped Result = "Skipped"
)

// ResultOptions lists the selectable test results in display order.
func ResultOptions() []Result {
	return []Result{ResultPass, ResultFail, ResultPending, ResultSkipped}
}

// BuildFile is one artifact of a build.
//
// Path is resolved from the workspace on load and never written to the
// document. SHA256 holds "-" until a checksum has been computed.
type BuildFile struct {
	Name   string
	Size   string
	SHA256 string
	Path   string
}

// NewBuildFile creates a file entry with a placeholder hash.
func NewBuildFile(name, size string) *BuildFile {
	return &BuildFile{Name: name, Size: size, SHA256: PlaceholderHash}
}

// HasPath reports whether the file has been resolved on disk.
func (f *BuildFile) HasPath() bool {
	return f.Path != ""
}

// AppUpdate describes an updated system app.
type AppUpdate struct {
	Name    string
	Path    string
	Version string
	Changes string

	// Details are optional bullet lines rendered under the app table.
	Details []string
}

// NewAppUpdate creates an app update without details.
func NewAppUpdate(name, path, version, changes string) *AppUpdate {
	return &AppUpdate{Name: name, Path: path, Version: version, Changes: changes}
}

// KnownIssue is an open (or closed) problem shipped with the build.
type KnownIssue struct {
	Issue      string
	Severity   Severity
	Status     IssueStatus
	Workaround string
}

// NewKnownIssue creates an issue with Medium severity and Open status.
func NewKnownIssue(issue string) *KnownIssue {
	return &KnownIssue{Issue: issue, Severity: SeverityMedium, Status: StatusOpen}
}

// TestResult records one test run against the build.
type TestResult struct {
	Name   string
	Result Result
	Notes  string
}

// NewTestResult creates a test result.
func NewTestResult(name string, result Result, notes string) *TestResult {
	return &TestResult{Name: name, Result: result, Notes: notes}
}
