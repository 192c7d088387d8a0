package dto

import (
	"github.com/handiism/buildlog-dashboard/internal/model"
)

// JSONFile represents an artifact entry.
//
// The resolved path is not part of the document.
type JSONFile struct {
	Name   string `json:"name"`
	Size   string `json:"size"`
	SHA256 string `json:"sha256"`
}

// JSONApp represents an app update.
type JSONApp struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Version string   `json:"version"`
	Changes string   `json:"changes"`
	Details []string `json:"details,omitempty"`
}

// JSONIssue represents a known issue.
type JSONIssue struct {
	Issue      string `json:"issue"`
	Severity   string `json:"severity"`
	Status     string `json:"status"`
	Workaround string `json:"workaround"`
}

// JSONTest represents a test result.
type JSONTest struct {
	Name   string `json:"name"`
	Result string `json:"result"`
	Notes  string `json:"notes"`
}

// ToBuildFile converts JSONFile to a model.BuildFile.
func (jf JSONFile) ToBuildFile() *model.BuildFile {
	// Documents written before hashing have no sha256 key
	hash := jf.SHA256
	if hash == "" {
		hash = model.PlaceholderHash
	}
	return &model.BuildFile{Name: jf.Name, Size: jf.Size, SHA256: hash}
}

// ToAppUpdate converts JSONApp to a model.AppUpdate.
func (ja JSONApp) ToAppUpdate() *model.AppUpdate {
	app := model.NewAppUpdate(ja.Name, ja.Path, ja.Version, ja.Changes)
	if len(ja.Details) > 0 {
		app.Details = append([]string(nil), ja.Details...)
	}
	return app
}

// ToKnownIssue converts JSONIssue to a model.KnownIssue.
func (ji JSONIssue) ToKnownIssue() *model.KnownIssue {
	return &model.KnownIssue{
		Issue:      ji.Issue,
		Severity:   model.Severity(ji.Severity),
		Status:     model.IssueStatus(ji.Status),
		Workaround: ji.Workaround,
	}
}

// ToTestResult converts JSONTest to a model.TestResult.
func (jt JSONTest) ToTestResult() *model.TestResult {
	return model.NewTestResult(jt.Name, model.Result(jt.Result), jt.Notes)
}

func fromFile(f *model.BuildFile) JSONFile {
	return JSONFile{Name: f.Name, Size: f.Size, SHA256: f.SHA256}
}

func fromApp(app *model.AppUpdate) JSONApp {
	return JSONApp{Name: app.Name, Path: app.Path, Version: app.Version, Changes: app.Changes, Details: app.Details}
}

func fromIssue(issue *model.KnownIssue) JSONIssue {
	return JSONIssue{Issue: issue.Issue, Severity: string(issue.Severity), Status: string(issue.Status), Workaround: issue.Workaround}
}

func fromTest(tr *model.TestResult) JSONTest {
	return JSONTest{Name: tr.Name, Result: string(tr.Result), Notes: tr.Notes}
}
