package dto

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

var fixedNow = time.Date(2026, 1, 30, 6, 27, 40, 0, time.Local)

func createTestRecord() *model.Record {
	approved := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)

	rec := model.NewRecord(fixedNow)
	rec.BuildNumber = "AAL-AA-07009-01"
	rec.BuildDate = time.Date(2026, 1, 30, 0, 0, 0, 0, time.Local)
	rec.Device = "GPN600-001"
	rec.AndroidVersion = "14"
	rec.Files = []*model.BuildFile{
		{Name: "a.zip", Size: "1 MB", SHA256: "abc", Path: "/builds/a.zip"},
	}
	app := model.NewAppUpdate("Launcher", "/system/app/Launcher", "2.0", "New UI")
	app.Details = []string{"One", "Two"}
	rec.AppUpdates = []*model.AppUpdate{app}
	rec.SystemModifications = "line one\nline two"
	rec.KnownIssues = []*model.KnownIssue{model.NewKnownIssue("Wi-Fi drops")}
	rec.TestResults[0].Result = model.ResultPass
	rec.CustomerRelease = true
	rec.BuiltBy = "Alice"
	rec.ReviewedBy = "Bob"
	rec.ApprovedForRelease = &approved
	return rec
}

func TestMarshalUnmarshal(t *testing.T) {
	want := createTestRecord()

	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal(data, time.Now())
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.BuildNumber != want.BuildNumber || got.Device != want.Device {
		t.Errorf("identity = (%q, %q), want (%q, %q)", got.BuildNumber, got.Device, want.BuildNumber, want.Device)
	}
	if !got.BuildDate.Equal(want.BuildDate) {
		t.Errorf("BuildDate = %v, want %v", got.BuildDate, want.BuildDate)
	}
	if !got.LastUpdated.Equal(want.LastUpdated) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, want.LastUpdated)
	}
	if got.ApprovedForRelease == nil || !got.ApprovedForRelease.Equal(*want.ApprovedForRelease) {
		t.Errorf("ApprovedForRelease = %v, want %v", got.ApprovedForRelease, want.ApprovedForRelease)
	}
	if got.Files[0].Path != "" {
		t.Errorf("Files[0].Path = %q, paths are not exported", got.Files[0].Path)
	}
	if got.Files[0].SHA256 != "abc" {
		t.Errorf("Files[0].SHA256 = %q, want abc", got.Files[0].SHA256)
	}
	if !reflect.DeepEqual(got.AppUpdates, want.AppUpdates) {
		t.Errorf("AppUpdates = %+v, want %+v", got.AppUpdates, want.AppUpdates)
	}
	if !reflect.DeepEqual(got.KnownIssues, want.KnownIssues) {
		t.Errorf("KnownIssues = %+v, want %+v", got.KnownIssues, want.KnownIssues)
	}
	if !reflect.DeepEqual(got.TestResults, want.TestResults) {
		t.Errorf("TestResults = %+v, want %+v", got.TestResults, want.TestResults)
	}
	if got.SystemModifications != want.SystemModifications {
		t.Errorf("SystemModifications = %q", got.SystemModifications)
	}
	if !got.CustomerRelease || !got.InternalTesting {
		t.Errorf("channels = (%v, %v), want both true", got.InternalTesting, got.CustomerRelease)
	}
}

func TestFromRecord_EmptyCollectionsAreArrays(t *testing.T) {
	rec := model.NewRecord(fixedNow)
	rec.TestResults = nil

	data, err := Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{`"files": []`, `"app_updates": []`, `"known_issues": []`, `"test_results": []`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("document missing %s", key)
		}
	}
	if strings.Contains(string(data), "approved_for_release") {
		t.Error("unset approval date should be omitted")
	}
}

func TestJSONTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: `"2026-01-30"`, want: "2026-01-30 00:00:00"},
		{input: `"2026-01-30 06:27:40"`, want: "2026-01-30 06:27:40"},
		{input: `"2026-01-30T06:27:40"`, want: "2026-01-30 06:27:40"},
		{input: `""`, want: "0001-01-01 00:00:00"},
		{input: `"yesterday"`, wantErr: true},
		{input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var jt JSONTime
			err := json.Unmarshal([]byte(tt.input), &jt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := jt.Format("2006-01-02 15:04:05"); got != tt.want {
				t.Errorf("UnmarshalJSON(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnmarshal_Defaults(t *testing.T) {
	rec, err := Unmarshal([]byte(`{"version": 1, "build_number": "B1", "files": [{"name": "x.zip", "size": "1 B"}]}`), fixedNow)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !rec.BuildDate.Equal(fixedNow) {
		t.Errorf("BuildDate = %v, want default now", rec.BuildDate)
	}
	if rec.Files[0].SHA256 != model.PlaceholderHash {
		t.Errorf("missing hash = %q, want placeholder", rec.Files[0].SHA256)
	}
	if len(rec.TestResults) != 0 {
		t.Errorf("TestResults = %d entries, want none", len(rec.TestResults))
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	if _, err := Unmarshal([]byte(`{not json`), fixedNow); err == nil {
		t.Error("Unmarshal() should fail on malformed JSON")
	}
	if _, err := Unmarshal([]byte(`{"version": 99}`), fixedNow); err == nil {
		t.Error("Unmarshal() should reject newer document versions")
	}
}
