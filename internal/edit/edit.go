package edit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// DateLayout is the format of every date accepted by an edit.
const DateLayout = "2006-01-02"

var (
	// ErrUnknownField is returned for field names SetField does not know.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a value cannot be applied to a field.
	ErrInvalidValue = errors.New("invalid value")
)

// fieldSetter applies a raw value to one record field.
type fieldSetter func(rec *model.Record, value string) error

var (
	setBuildType fieldSetter = func(r *model.Record, value string) error {
		bt, ok := matchOption(value, model.BuildTypeOptions())
		if !ok {
			return invalid("build type", value, model.BuildTypeOptions())
		}
		r.BuildType = bt
		return nil
	}

	setBuildDate fieldSetter = func(r *model.Record, value string) error {
		t, err := parseDate(value)
		if err != nil {
			return err
		}
		r.BuildDate = t
		return nil
	}

	setApproved fieldSetter = func(r *model.Record, value string) error {
		if strings.TrimSpace(value) == "" {
			r.ApprovedForRelease = nil
			return nil
		}
		t, err := parseDate(value)
		if err != nil {
			return err
		}
		r.ApprovedForRelease = &t
		return nil
	}
)

// fields maps normalized field names and their short aliases to setters.
var fields = map[string]fieldSetter{
	"buildnumber":    text(func(r *model.Record) *string { return &r.BuildNumber }),
	"build":          text(func(r *model.Record) *string { return &r.BuildNumber }),
	"builddate":      setBuildDate,
	"device":         text(func(r *model.Record) *string { return &r.Device }),
	"buildtype":      setBuildType,
	"type":           setBuildType,
	"androidversion": text(func(r *model.Record) *string { return &r.AndroidVersion }),
	"android":        text(func(r *model.Record) *string { return &r.AndroidVersion }),
	"securitypatch":  text(func(r *model.Record) *string { return &r.SecurityPatch }),
	"kernelversion":  text(func(r *model.Record) *string { return &r.KernelVersion }),
	"kernel":         text(func(r *model.Record) *string { return &r.KernelVersion }),
	"previousbuild":  text(func(r *model.Record) *string { return &r.PreviousBuild }),

	"systemmodifications":  block(func(r *model.Record) *string { return &r.SystemModifications }),
	"kerneldriverchanges":  block(func(r *model.Record) *string { return &r.KernelDriverChanges }),
	"configurationchanges": block(func(r *model.Record) *string { return &r.ConfigurationChanges }),
	"removedcomponents":    block(func(r *model.Record) *string { return &r.RemovedComponents }),

	"bootloaderversion":   text(func(r *model.Record) *string { return &r.BootloaderVersion }),
	"bootloader":          text(func(r *model.Record) *string { return &r.BootloaderVersion }),
	"compatibleotabuilds": text(func(r *model.Record) *string { return &r.CompatibleOTABuilds }),
	"ota":                 text(func(r *model.Record) *string { return &r.CompatibleOTABuilds }),

	"internaltesting":      flag(func(r *model.Record) *bool { return &r.InternalTesting }),
	"customerrelease":      flag(func(r *model.Record) *bool { return &r.CustomerRelease }),
	"specificcustomer":     text(func(r *model.Record) *string { return &r.SpecificCustomer }),
	"customerreleasenotes": block(func(r *model.Record) *string { return &r.CustomerReleaseNotes }),
	"releasenotes":         block(func(r *model.Record) *string { return &r.CustomerReleaseNotes }),

	"builtby":            text(func(r *model.Record) *string { return &r.BuiltBy }),
	"reviewedby":         text(func(r *model.Record) *string { return &r.ReviewedBy }),
	"approved":           setApproved,
	"approvedforrelease": setApproved,
}

// FieldNames returns the canonical field names accepted by SetField.
func FieldNames() []string {
	return []string{
		"build_number", "build_date", "device", "build_type", "android_version",
		"security_patch", "kernel_version", "previous_build",
		"system_modifications", "kernel_driver_changes", "configuration_changes", "removed_components",
		"bootloader_version", "compatible_ota_builds",
		"internal_testing", "customer_release", "specific_customer", "customer_release_notes",
		"built_by", "reviewed_by", "approved",
	}
}

// SetField sets a record field by name.
//
// Names are matched ignoring case, spaces, dashes and underscores, so
// "Built by", "built-by" and "built_by" are the same field. Multi-line
// fields (the changelog blocks and release notes) turn a literal "\n" in
// value into a line break. Dates use YYYY-MM-DD; an empty approval date
// clears the approval.
func SetField(rec *model.Record, name, value string) error {
	set, ok := fields[normalize(name)]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	return set(rec, value)
}

// Assign applies a "field=value" assignment.
func Assign(rec *model.Record, assignment string) error {
	name, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("%w %q: want field=value", ErrInvalidValue, assignment)
	}
	return SetField(rec, name, value)
}

// SetTest applies "Name=Result" or "Name=Result|notes".
//
// An existing test with the same name (ignoring case) is updated, otherwise
// the test is appended. Notes are only replaced when given.
func SetTest(rec *model.Record, arg string) error {
	name, rest, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("%w %q: want name=result", ErrInvalidValue, arg)
	}

	value, notes, hasNotes := strings.Cut(rest, "|")
	result, ok := matchOption(value, model.ResultOptions())
	if !ok {
		return invalid("test result", value, model.ResultOptions())
	}

	for _, tr := range rec.TestResults {
		if strings.EqualFold(tr.Name, name) {
			tr.Result = result
			if hasNotes {
				tr.Notes = strings.TrimSpace(notes)
			}
			return nil
		}
	}
	rec.TestResults = append(rec.TestResults, model.NewTestResult(name, result, strings.TrimSpace(notes)))
	return nil
}

// AddIssue appends a known issue from "Issue|Severity|Status|Workaround".
// Severity defaults to Medium, status to Open and workaround to "-".
func AddIssue(rec *model.Record, arg string) error {
	parts := splitParts(arg, 4)
	if parts[0] == "" {
		return fmt.Errorf("%w %q: want issue|severity|status|workaround", ErrInvalidValue, arg)
	}

	issue := model.NewKnownIssue(parts[0])
	if parts[1] != "" {
		sev, ok := matchOption(parts[1], model.SeverityOptions())
		if !ok {
			return invalid("severity", parts[1], model.SeverityOptions())
		}
		issue.Severity = sev
	}
	if parts[2] != "" {
		status, ok := matchOption(parts[2], model.StatusOptions())
		if !ok {
			return invalid("status", parts[2], model.StatusOptions())
		}
		issue.Status = status
	}
	issue.Workaround = model.PlaceholderHash
	if parts[3] != "" {
		issue.Workaround = parts[3]
	}

	rec.KnownIssues = append(rec.KnownIssues, issue)
	return nil
}

// SetApp adds or updates an app from "Name|Path|Version|Changes".
// Empty parts leave an existing app's value unchanged.
func SetApp(rec *model.Record, arg string) error {
	parts := splitParts(arg, 4)
	if parts[0] == "" {
		return fmt.Errorf("%w %q: want name|path|version|changes", ErrInvalidValue, arg)
	}

	app := rec.FindApp(parts[0])
	if app == nil {
		rec.AppUpdates = append(rec.AppUpdates, model.NewAppUpdate(parts[0], parts[1], parts[2], parts[3]))
		return nil
	}
	for i, dst := range []*string{&app.Path, &app.Version, &app.Changes} {
		if parts[i+1] != "" {
			*dst = parts[i+1]
		}
	}
	return nil
}

// AddAppDetail appends a detail line from "Name=detail", creating the app
// when it is not listed yet.
func AddAppDetail(rec *model.Record, arg string) error {
	name, detail, ok := strings.Cut(arg, "=")
	name, detail = strings.TrimSpace(name), strings.TrimSpace(detail)
	if !ok || name == "" || detail == "" {
		return fmt.Errorf("%w %q: want app=detail", ErrInvalidValue, arg)
	}

	app := rec.FindApp(name)
	if app == nil {
		app = model.NewAppUpdate(name, "", "", "")
		rec.AppUpdates = append(rec.AppUpdates, app)
	}
	app.Details = append(app.Details, detail)
	return nil
}

// RemoveTest deletes the test named name.
func RemoveTest(rec *model.Record, name string) error {
	i := indexOf(len(rec.TestResults), func(i int) string { return rec.TestResults[i].Name }, name)
	if i < 0 {
		return fmt.Errorf("%w: no test %q", ErrInvalidValue, name)
	}
	rec.TestResults = append(rec.TestResults[:i], rec.TestResults[i+1:]...)
	return nil
}

// RemoveIssue deletes the first known issue whose text is issue.
func RemoveIssue(rec *model.Record, issue string) error {
	i := indexOf(len(rec.KnownIssues), func(i int) string { return rec.KnownIssues[i].Issue }, issue)
	if i < 0 {
		return fmt.Errorf("%w: no issue %q", ErrInvalidValue, issue)
	}
	rec.KnownIssues = append(rec.KnownIssues[:i], rec.KnownIssues[i+1:]...)
	return nil
}

// RemoveApp deletes the first app named name.
func RemoveApp(rec *model.Record, name string) error {
	i := indexOf(len(rec.AppUpdates), func(i int) string { return rec.AppUpdates[i].Name }, name)
	if i < 0 {
		return fmt.Errorf("%w: no app %q", ErrInvalidValue, name)
	}
	rec.AppUpdates = append(rec.AppUpdates[:i], rec.AppUpdates[i+1:]...)
	return nil
}

func text(field func(*model.Record) *string) fieldSetter {
	return func(r *model.Record, value string) error {
		*field(r) = strings.TrimSpace(value)
		return nil
	}
}

func block(field func(*model.Record) *string) fieldSetter {
	return func(r *model.Record, value string) error {
		*field(r) = strings.TrimSpace(strings.ReplaceAll(value, `\n`, "\n"))
		return nil
	}
}

func flag(field func(*model.Record) *bool) fieldSetter {
	return func(r *model.Record, value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w %q: want true or false", ErrInvalidValue, value)
		}
		*field(r) = b
		return nil
	}
}

func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidValue, value)
	}
	return t, nil
}

// matchOption returns the option equal to value ignoring case.
func matchOption[T ~string](value string, options []T) (T, bool) {
	value = strings.TrimSpace(value)
	for _, opt := range options {
		if strings.EqualFold(string(opt), value) {
			return opt, true
		}
	}
	var zero T
	return zero, false
}

func invalid[T ~string](what, value string, options []T) error {
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = string(opt)
	}
	return fmt.Errorf("%w %s %q: want one of %s", ErrInvalidValue, what, strings.TrimSpace(value), strings.Join(names, ", "))
}

// splitParts splits arg on "|" into exactly n trimmed parts.
func splitParts(arg string, n int) []string {
	parts := strings.SplitN(arg, "|", n)
	out := make([]string, n)
	for i := range parts {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}

func indexOf(n int, name func(int) string, want string) int {
	want = strings.TrimSpace(want)
	for i := 0; i < n; i++ {
		if strings.EqualFold(name(i), want) {
			return i
		}
	}
	return -1
}

func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}
