package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// FormatVersion is written into every exported document.
const FormatVersion = 1

// JSONTime is a time that reads the date formats found in exported and
// hand-written documents and writes RFC 3339.
type JSONTime struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339 and the document's own date layouts.
func (jt *JSONTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		jt.Time = time.Time{}
		return nil
	}

	// Try multiple formats
	formats := []string{
		time.RFC3339,          // "2026-01-30T06:27:40+07:00"
		"2006-01-02T15:04:05", // no zone, local time
		"2006-01-02 15:04:05", // "Last updated" footer
		"2006-01-02",          // Build Date
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			jt.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse date: %s", s)
}

// MarshalJSON writes the time as RFC 3339, or "" for the zero time.
func (jt JSONTime) MarshalJSON() ([]byte, error) {
	if jt.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(jt.Format(time.RFC3339))
}

// JSONRecord is the JSON document form of a record.
type JSONRecord struct {
	Version int `json:"version"`

	BuildNumber    string   `json:"build_number"`
	BuildDate      JSONTime `json:"build_date"`
	Device         string   `json:"device"`
	BuildType      string   `json:"build_type"`
	AndroidVersion string   `json:"android_version"`
	SecurityPatch  string   `json:"security_patch"`
	KernelVersion  string   `json:"kernel_version"`
	PreviousBuild  string   `json:"previous_build"`

	Files []JSONFile `json:"files"`

	AppUpdates           []JSONApp `json:"app_updates"`
	SystemModifications  string    `json:"system_modifications"`
	KernelDriverChanges  string    `json:"kernel_driver_changes"`
	ConfigurationChanges string    `json:"configuration_changes"`
	RemovedComponents    string    `json:"removed_components"`

	KnownIssues []JSONIssue `json:"known_issues"`
	TestResults []JSONTest  `json:"test_results"`

	BootloaderVersion   string `json:"bootloader_version"`
	CompatibleOTABuilds string `json:"compatible_ota_builds"`

	InternalTesting      bool   `json:"internal_testing"`
	CustomerRelease      bool   `json:"customer_release"`
	SpecificCustomer     string `json:"specific_customer"`
	CustomerReleaseNotes string `json:"customer_release_notes"`

	BuiltBy            string    `json:"built_by"`
	ReviewedBy         string    `json:"reviewed_by"`
	ApprovedForRelease *JSONTime `json:"approved_for_release,omitempty"`
	LastUpdated        JSONTime  `json:"last_updated"`
}

// FromRecord converts a record into its JSON document form.
//
// Collections are always emitted as arrays, never null.
func FromRecord(rec *model.Record) *JSONRecord {
	jr := &JSONRecord{
		Version:              FormatVersion,
		BuildNumber:          rec.BuildNumber,
		BuildDate:            JSONTime{rec.BuildDate},
		Device:               rec.Device,
		BuildType:            string(rec.BuildType),
		AndroidVersion:       rec.AndroidVersion,
		SecurityPatch:        rec.SecurityPatch,
		KernelVersion:        rec.KernelVersion,
		PreviousBuild:        rec.PreviousBuild,
		Files:                make([]JSONFile, 0, len(rec.Files)),
		AppUpdates:           make([]JSONApp, 0, len(rec.AppUpdates)),
		SystemModifications:  rec.SystemModifications,
		KernelDriverChanges:  rec.KernelDriverChanges,
		ConfigurationChanges: rec.ConfigurationChanges,
		RemovedComponents:    rec.RemovedComponents,
		KnownIssues:          make([]JSONIssue, 0, len(rec.KnownIssues)),
		TestResults:          make([]JSONTest, 0, len(rec.TestResults)),
		BootloaderVersion:    rec.BootloaderVersion,
		CompatibleOTABuilds:  rec.CompatibleOTABuilds,
		InternalTesting:      rec.InternalTesting,
		CustomerRelease:      rec.CustomerRelease,
		SpecificCustomer:     rec.SpecificCustomer,
		CustomerReleaseNotes: rec.CustomerReleaseNotes,
		BuiltBy:              rec.BuiltBy,
		ReviewedBy:           rec.ReviewedBy,
		LastUpdated:          JSONTime{rec.LastUpdated},
	}

	if rec.ApprovedForRelease != nil {
		jr.ApprovedForRelease = &JSONTime{*rec.ApprovedForRelease}
	}

	for _, f := range rec.Files {
		jr.Files = append(jr.Files, fromFile(f))
	}
	for _, app := range rec.AppUpdates {
		jr.AppUpdates = append(jr.AppUpdates, fromApp(app))
	}
	for _, issue := range rec.KnownIssues {
		jr.KnownIssues = append(jr.KnownIssues, fromIssue(issue))
	}
	for _, tr := range rec.TestResults {
		jr.TestResults = append(jr.TestResults, fromTest(tr))
	}

	return jr
}

// ToRecord converts the JSON document into a record.
//
// Dates missing from the document default to now. Test results are taken
// from the document only; the default tests are not seeded.
func (jr *JSONRecord) ToRecord(now time.Time) *model.Record {
	rec := model.NewRecord(now)
	rec.TestResults = nil

	rec.BuildNumber = jr.BuildNumber
	if !jr.BuildDate.IsZero() {
		rec.BuildDate = jr.BuildDate.Time
	}
	rec.Device = jr.Device
	rec.BuildType = model.BuildType(jr.BuildType)
	rec.AndroidVersion = jr.AndroidVersion
	rec.SecurityPatch = jr.SecurityPatch
	rec.KernelVersion = jr.KernelVersion
	rec.PreviousBuild = jr.PreviousBuild

	for _, f := range jr.Files {
		rec.AddFile(f.ToBuildFile())
	}
	for _, app := range jr.AppUpdates {
		rec.AppUpdates = append(rec.AppUpdates, app.ToAppUpdate())
	}

	rec.SystemModifications = jr.SystemModifications
	rec.KernelDriverChanges = jr.KernelDriverChanges
	rec.ConfigurationChanges = jr.ConfigurationChanges
	rec.RemovedComponents = jr.RemovedComponents

	for _, issue := range jr.KnownIssues {
		rec.KnownIssues = append(rec.KnownIssues, issue.ToKnownIssue())
	}
	for _, tr := range jr.TestResults {
		rec.TestResults = append(rec.TestResults, tr.ToTestResult())
	}

	rec.BootloaderVersion = jr.BootloaderVersion
	rec.CompatibleOTABuilds = jr.CompatibleOTABuilds
	rec.InternalTesting = jr.InternalTesting
	rec.CustomerRelease = jr.CustomerRelease
	rec.SpecificCustomer = jr.SpecificCustomer
	rec.CustomerReleaseNotes = jr.CustomerReleaseNotes
	rec.BuiltBy = jr.BuiltBy
	rec.ReviewedBy = jr.ReviewedBy

	if jr.ApprovedForRelease != nil && !jr.ApprovedForRelease.IsZero() {
		approved := jr.ApprovedForRelease.Time
		rec.ApprovedForRelease = &approved
	}
	if !jr.LastUpdated.IsZero() {
		rec.LastUpdated = jr.LastUpdated.Time
	}

	return rec
}

// Marshal encodes rec as an indented JSON document.
func Marshal(rec *model.Record) ([]byte, error) {
	return json.MarshalIndent(FromRecord(rec), "", "  ")
}

// Unmarshal decodes a JSON document into a record.
func Unmarshal(data []byte, now time.Time) (*model.Record, error) {
	var jr JSONRecord
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, err
	}
	if jr.Version > FormatVersion {
		return nil, fmt.Errorf("unsupported document version %d", jr.Version)
	}
	return jr.ToRecord(now), nil
}
