package markdown

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// Regex patterns for the bullet lines of the document.
var (
	bootloaderPattern       = regexp.MustCompile(`Bootloader Version\*{0,2}:\s*(.+)$`)
	compatibleOTAPattern    = regexp.MustCompile(`Compatible OTA[^:]*:\s*(.+)$`)
	specificCustomerPattern = regexp.MustCompile(`Specific Customer\*{0,2}:\s*(.+)$`)
	builtByPattern          = regexp.MustCompile(`Built by\*{0,2}:\s*(.+)$`)
	reviewedByPattern       = regexp.MustCompile(`Reviewed by\*{0,2}:\s*(.+)$`)
	approvedPattern         = regexp.MustCompile(`Approved for release\*{0,2}:\s*(.+)$`)
	lastUpdatedPattern      = regexp.MustCompile(`\*Last updated:\s*(.+)\*`)
	appDetailsPattern       = regexp.MustCompile(`^####\s+(.*?)\s*\bDetails\s*$`)

	cellMarkupPattern  = regexp.MustCompile("\\*{1,2}|`")
	resultGlyphPattern = regexp.MustCompile(`[✅❌⏳⏭\x{FE0F}❓]\s*`)
)

// dateLayouts are tried in order when reading dates typed by hand.
var dateLayouts = []string{
	DateLayout,
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// Parser reads build log Markdown back into a record.
//
// Parsing is lenient: it never fails on content. Unknown lines are ignored,
// missing sections leave their defaults, and values that cannot be parsed
// (dates, enums) keep the default or are stored as written. A document
// produced by Generator parses back to the same field values.
//
// Example:
//
//	p := NewParser()
//	rec := p.Parse(content)
//	fmt.Println(rec.BuildNumber, len(rec.Files))
type Parser struct {
	// Now supplies the default build and update dates.
	Now func() time.Time
}

// NewParser creates a Parser using the wall clock.
func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// parseState is the accumulator threaded through the line fold.
type parseState struct {
	section    string
	subsection string

	// detailsApp receives "- " lines under a "#### {app} Details" heading.
	detailsApp *model.AppUpdate

	// claimed tracks apps already bound to a details heading, so two apps
	// sharing a name each get their own block.
	claimed map[*model.AppUpdate]bool
}

// Parse converts Markdown content into a record.
//
// The record starts from the defaults of model.NewRecord with the seeded
// test results cleared; only tests present in the document are kept.
func (p *Parser) Parse(content string) *model.Record {
	rec := model.NewRecord(p.now())
	rec.TestResults = nil

	state := parseState{claimed: make(map[*model.AppUpdate]bool)}
	for _, raw := range strings.Split(content, "\n") {
		state = foldLine(state, rec, strings.TrimRight(raw, "\r"))
	}

	rec.SystemModifications = strings.TrimSpace(rec.SystemModifications)
	rec.KernelDriverChanges = strings.TrimSpace(rec.KernelDriverChanges)
	rec.ConfigurationChanges = strings.TrimSpace(rec.ConfigurationChanges)
	rec.RemovedComponents = strings.TrimSpace(rec.RemovedComponents)
	rec.CustomerReleaseNotes = strings.TrimSpace(rec.CustomerReleaseNotes)

	return rec
}

// ParseFile reads and parses the document at path.
//
// A file that does not exist yields a default record with no build number,
// which callers treat as nothing loaded. Other read errors are returned.
func (p *Parser) ParseFile(path string) (*model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewRecord(p.now()), nil
		}
		return nil, err
	}

	rec := p.Parse(string(data))
	rec.SourcePath = path
	return rec, nil
}

// foldLine applies one line to rec and returns the next state.
func foldLine(state parseState, rec *model.Record, line string) parseState {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "## "):
		state.section = strings.TrimSpace(trimmed[3:])
		state.subsection = ""
		state.detailsApp = nil
		return state

	case strings.HasPrefix(trimmed, "### "):
		state.subsection = strings.TrimSpace(trimmed[4:])
		state.detailsApp = nil
		return state

	case strings.HasPrefix(trimmed, "#### "):
		state.detailsApp = nil
		if state.section == SectionChangelog && state.subsection == SubsectionAppUpdates {
			if m := appDetailsPattern.FindStringSubmatch(trimmed); m != nil {
				state.detailsApp = claimApp(state, rec, m[1])
			}
		}
		return state

	case strings.HasPrefix(trimmed, "*Last updated:"):
		if m := lastUpdatedPattern.FindStringSubmatch(trimmed); m != nil {
			if t, ok := parseTimestamp(m[1]); ok {
				rec.LastUpdated = t
			}
		}
		return state
	}

	switch state.section {
	case SectionBuildInfo:
		parseBuildInfoRow(rec, trimmed)
	case SectionFiles:
		parseFileRow(rec, trimmed)
	case SectionChangelog:
		parseChangelogLine(state, rec, line, trimmed)
	case SectionKnownIssues:
		parseIssueRow(rec, trimmed)
	case SectionTesting:
		parseTestRow(rec, trimmed)
	case SectionDependencies:
		parseDependencyLine(rec, trimmed)
	case SectionRecommended:
		parseRecommendedLine(rec, trimmed)
	case SectionReleaseNotes:
		if trimmed != "" {
			rec.CustomerReleaseNotes += line + "\n"
		}
	case SectionBuildEngineer:
		parseEngineerLine(rec, trimmed)
	}

	return state
}

// claimApp returns the first app named name not yet bound to a details block.
// Details for an app missing from the table create a new entry.
func claimApp(state parseState, rec *model.Record, name string) *model.AppUpdate {
	for _, app := range rec.AppUpdates {
		if app.Name == name && !state.claimed[app] {
			state.claimed[app] = true
			return app
		}
	}

	app := model.NewAppUpdate(name, "", "", "")
	rec.AppUpdates = append(rec.AppUpdates, app)
	state.claimed[app] = true
	return app
}

func parseBuildInfoRow(rec *model.Record, line string) {
	if !strings.HasPrefix(line, "|") {
		return
	}
	cells := splitRow(line)
	if len(cells) < 2 {
		return
	}

	value := cells[1]
	switch strings.ToLower(cells[0]) {
	case "build number":
		rec.BuildNumber = value
	case "build date":
		if t, ok := parseDate(value); ok {
			rec.BuildDate = t
		}
	case "device":
		rec.Device = value
	case "build type":
		rec.BuildType = model.BuildType(value)
	case "android version":
		rec.AndroidVersion = value
	case "security patch":
		rec.SecurityPatch = value
	case "kernel version":
		rec.KernelVersion = value
	case "previous build":
		rec.PreviousBuild = value
	}
}

func parseFileRow(rec *model.Record, line string) {
	cells, ok := tableRow(line, "file")
	if !ok || len(cells) < 3 {
		return
	}
	rec.AddFile(&model.BuildFile{Name: cells[0], Size: cells[1], SHA256: cells[2]})
}

func parseChangelogLine(state parseState, rec *model.Record, line, trimmed string) {
	if state.detailsApp != nil {
		if strings.HasPrefix(trimmed, "- ") {
			state.detailsApp.Details = append(state.detailsApp.Details, strings.TrimSpace(trimmed[2:]))
		}
		return
	}

	switch state.subsection {
	case SubsectionAppUpdates:
		cells, ok := tableRow(trimmed, "app")
		if !ok || len(cells) < 4 {
			return
		}
		rec.AppUpdates = append(rec.AppUpdates, model.NewAppUpdate(cells[0], cells[1], cells[2], cells[3]))
	case SubsectionSystemMods:
		appendBullet(&rec.SystemModifications, line)
	case SubsectionKernelDrivers:
		appendBullet(&rec.KernelDriverChanges, line)
	case SubsectionConfiguration:
		appendBullet(&rec.ConfigurationChanges, line)
	case SubsectionRemoved:
		appendBullet(&rec.RemovedComponents, line)
	}
}

func parseIssueRow(rec *model.Record, line string) {
	cells, ok := tableRow(line, "issue")
	if !ok || len(cells) < 4 {
		return
	}
	rec.KnownIssues = append(rec.KnownIssues, &model.KnownIssue{
		Issue:      cells[0],
		Severity:   model.Severity(cells[1]),
		Status:     model.IssueStatus(cells[2]),
		Workaround: cells[3],
	})
}

func parseTestRow(rec *model.Record, line string) {
	cells, ok := tableRow(line, "test")
	if !ok || len(cells) < 3 {
		return
	}

	result := strings.TrimSpace(resultGlyphPattern.ReplaceAllString(cells[1], ""))
	rec.TestResults = append(rec.TestResults, model.NewTestResult(cells[0], model.Result(result), cells[2]))
}

func parseDependencyLine(rec *model.Record, line string) {
	if m := bootloaderPattern.FindStringSubmatch(line); m != nil {
		rec.BootloaderVersion = strings.TrimSpace(m[1])
	} else if m := compatibleOTAPattern.FindStringSubmatch(line); m != nil {
		rec.CompatibleOTABuilds = strings.TrimSpace(m[1])
	}
}

func parseRecommendedLine(rec *model.Record, line string) {
	switch {
	case strings.Contains(line, "Internal Testing"):
		rec.InternalTesting = isChecked(line)
	case strings.Contains(line, "Customer Release") && !strings.Contains(line, "Specific"):
		rec.CustomerRelease = isChecked(line)
	default:
		if m := specificCustomerPattern.FindStringSubmatch(line); m != nil {
			rec.SpecificCustomer = strings.TrimSpace(m[1])
		}
	}
}

func parseEngineerLine(rec *model.Record, line string) {
	if m := builtByPattern.FindStringSubmatch(line); m != nil {
		rec.BuiltBy = strings.TrimSpace(m[1])
	} else if m := reviewedByPattern.FindStringSubmatch(line); m != nil {
		rec.ReviewedBy = strings.TrimSpace(m[1])
	} else if m := approvedPattern.FindStringSubmatch(line); m != nil {
		if t, ok := parseDate(m[1]); ok {
			rec.ApprovedForRelease = &t
		}
	}
}

// tableRow splits a data row of a table whose first column is labelled
// header. Separator rows, header rows and non-table lines report false.
func tableRow(line, header string) ([]string, bool) {
	if !strings.HasPrefix(line, "|") || strings.Contains(line, "---") {
		return nil, false
	}
	cells := splitRow(line)
	if len(cells) == 0 || strings.EqualFold(cells[0], header) {
		return nil, false
	}
	return cells, true
}

// splitRow splits "| a | b |" into cleaned cells.
//
// Only the empty fragments outside the first and last pipe are dropped, so
// empty cells inside the row keep their column position.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if strings.HasSuffix(line, "|") && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, len(parts))
	for i, part := range parts {
		cells[i] = cleanCell(part)
	}
	return cells
}

// cleanCell strips bold markers and backticks from a table cell.
func cleanCell(cell string) string {
	return strings.TrimSpace(cellMarkupPattern.ReplaceAllString(cell, ""))
}

// appendBullet adds the text of a "- " line to a free-text block.
func appendBullet(block *string, line string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- ") {
		return
	}
	*block += strings.TrimSpace(trimmed[2:]) + "\n"
}

func isChecked(line string) bool {
	return strings.Contains(line, "[x]") || strings.Contains(line, "[X]")
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(TimestampLayout, value, time.Local); err == nil {
		return t, true
	}
	return parseDate(value)
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
