package markdown

import (
	"fmt"
	"strings"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// Date layouts of the document format.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Section headings of the document format.
const (
	SectionBuildInfo     = "Build Information"
	SectionFiles         = "Files"
	SectionChangelog     = "Changelog"
	SectionKnownIssues   = "Known Issues"
	SectionTesting       = "Testing Status"
	SectionDependencies  = "Dependencies"
	SectionRecommended   = "Recommended For"
	SectionReleaseNotes  = "Customer Release Notes"
	SectionBuildEngineer = "Build Engineer"

	SubsectionAppUpdates    = "App Updates"
	SubsectionSystemMods    = "System Modifications"
	SubsectionKernelDrivers = "Kernel/Driver Changes"
	SubsectionConfiguration = "Configuration Changes"
	SubsectionRemoved       = "Removed Components"
)

// Generator serializes a record into the build log Markdown format.
//
// The output is deterministic and generation never fails. The document has
// a fixed structure; optional sections are omitted when they have no
// content, while Build Information, Files, Dependencies, Recommended For and
// Build Engineer are always present.
//
// Table cells are written as-is. A literal "|" inside a value splits the
// cell when the document is parsed back.
//
// Example:
//
//	gen := NewGenerator()
//	content := gen.Generate(rec)
//	os.WriteFile("BUILD_LOG_"+rec.BuildNumber+".md", []byte(content), 0644)
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders rec as a Markdown document.
func (g *Generator) Generate(rec *model.Record) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Android OS Image Build Log - %s\n\n", rec.BuildNumber))

	g.writeBuildInfo(&sb, rec)
	g.writeFiles(&sb, rec)
	g.writeChangelog(&sb, rec)
	g.writeKnownIssues(&sb, rec)
	g.writeTestResults(&sb, rec)
	g.writeDependencies(&sb, rec)
	g.writeRecommendedFor(&sb, rec)
	g.writeReleaseNotes(&sb, rec)
	g.writeBuildEngineer(&sb, rec)

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("*Last updated: %s*\n", rec.LastUpdated.Format(TimestampLayout)))

	return sb.String()
}

func (g *Generator) writeBuildInfo(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionBuildInfo + "\n\n")
	sb.WriteString("| Property | Value |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Build Number** | `%s` |\n", rec.BuildNumber))
	sb.WriteString(fmt.Sprintf("| **Build Date** | %s |\n", rec.BuildDate.Format(DateLayout)))
	sb.WriteString(fmt.Sprintf("| **Device** | %s |\n", rec.Device))
	sb.WriteString(fmt.Sprintf("| **Build Type** | %s |\n", rec.BuildType))
	sb.WriteString(fmt.Sprintf("| **Android Version** | %s |\n", rec.AndroidVersion))
	sb.WriteString(fmt.Sprintf("| **Security Patch** | %s |\n", rec.SecurityPatch))
	sb.WriteString(fmt.Sprintf("| **Kernel Version** | %s |\n", rec.KernelVersion))
	sb.WriteString(fmt.Sprintf("| **Previous Build** | %s |\n", rec.PreviousBuild))
	sb.WriteString("\n")
}

func (g *Generator) writeFiles(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionFiles + "\n\n")
	sb.WriteString("| File | Size | SHA256 |\n")
	sb.WriteString("|------|------|--------|\n")
	for _, f := range rec.Files {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | `%s` |\n", f.Name, f.Size, f.SHA256))
	}
	sb.WriteString("\n")
}

func (g *Generator) writeChangelog(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionChangelog + "\n\n")

	if len(rec.AppUpdates) > 0 {
		sb.WriteString("### " + SubsectionAppUpdates + "\n\n")
		sb.WriteString("| App | Path | Version | Changes |\n")
		sb.WriteString("|-----|------|---------|---------|\n")
		for _, app := range rec.AppUpdates {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n", app.Name, app.Path, app.Version, app.Changes))
		}
		sb.WriteString("\n")

		for _, app := range rec.AppUpdates {
			if !hasDetails(app) {
				continue
			}
			sb.WriteString(fmt.Sprintf("#### %s Details\n\n", app.Name))
			for _, detail := range app.Details {
				writeBullet(sb, detail)
			}
			sb.WriteString("\n")
		}
	}

	writeBulletBlock(sb, SubsectionSystemMods, rec.SystemModifications)
	writeBulletBlock(sb, SubsectionKernelDrivers, rec.KernelDriverChanges)
	writeBulletBlock(sb, SubsectionConfiguration, rec.ConfigurationChanges)
	writeBulletBlock(sb, SubsectionRemoved, rec.RemovedComponents)
}

func (g *Generator) writeKnownIssues(sb *strings.Builder, rec *model.Record) {
	if len(rec.KnownIssues) == 0 {
		return
	}

	sb.WriteString("## " + SectionKnownIssues + "\n\n")
	sb.WriteString("| Issue | Severity | Status | Workaround |\n")
	sb.WriteString("|-------|----------|--------|------------|\n")
	for _, issue := range rec.KnownIssues {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", issue.Issue, issue.Severity, issue.Status, issue.Workaround))
	}
	sb.WriteString("\n")
}

func (g *Generator) writeTestResults(sb *strings.Builder, rec *model.Record) {
	if len(rec.TestResults) == 0 {
		return
	}

	sb.WriteString("## " + SectionTesting + "\n\n")
	sb.WriteString("| Test | Result | Notes |\n")
	sb.WriteString("|------|--------|-------|\n")
	for _, tr := range rec.TestResults {
		sb.WriteString(fmt.Sprintf("| %s | %s %s | %s |\n", tr.Name, ResultEmoji(tr.Result), tr.Result, tr.Notes))
	}
	sb.WriteString("\n")
}

func (g *Generator) writeDependencies(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionDependencies + "\n\n")
	sb.WriteString(fmt.Sprintf("- **Bootloader Version**: %s\n", rec.BootloaderVersion))
	sb.WriteString(fmt.Sprintf("- **Compatible OTA Builds**: %s\n", rec.CompatibleOTABuilds))
	sb.WriteString("\n")
}

// writeRecommendedFor always checks Internal Testing, whatever the flag says.
func (g *Generator) writeRecommendedFor(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionRecommended + "\n\n")
	sb.WriteString("- [x] Internal Testing\n")
	sb.WriteString(fmt.Sprintf("- [%s] Customer Release\n", checkMark(rec.CustomerRelease)))
	if strings.TrimSpace(rec.SpecificCustomer) != "" {
		sb.WriteString(fmt.Sprintf("- **Specific Customer**: %s\n", rec.SpecificCustomer))
	}
	sb.WriteString("\n")
}

func (g *Generator) writeReleaseNotes(sb *strings.Builder, rec *model.Record) {
	if strings.TrimSpace(rec.CustomerReleaseNotes) == "" {
		return
	}

	sb.WriteString("## " + SectionReleaseNotes + "\n\n")
	for _, line := range strings.Split(rec.CustomerReleaseNotes, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString(strings.TrimRight(line, "\r") + "\n")
	}
	sb.WriteString("\n")
}

func (g *Generator) writeBuildEngineer(sb *strings.Builder, rec *model.Record) {
	sb.WriteString("## " + SectionBuildEngineer + "\n\n")
	sb.WriteString(fmt.Sprintf("- **Built by**: %s\n", rec.BuiltBy))
	sb.WriteString(fmt.Sprintf("- **Reviewed by**: %s\n", rec.ReviewedBy))
	if rec.ApprovedForRelease != nil {
		sb.WriteString(fmt.Sprintf("- **Approved for release**: %s\n", rec.ApprovedForRelease.Format(DateLayout)))
	}
	sb.WriteString("\n")
}

// writeBulletBlock emits a changelog subsection, one bullet per line of block.
// Blank blocks produce nothing.
func writeBulletBlock(sb *strings.Builder, heading, block string) {
	if strings.TrimSpace(block) == "" {
		return
	}

	sb.WriteString("### " + heading + "\n\n")
	for _, line := range model.SplitLines(block) {
		writeBullet(sb, line)
	}
	sb.WriteString("\n")
}

func hasDetails(app *model.AppUpdate) bool {
	for _, detail := range app.Details {
		if strings.TrimSpace(detail) != "" {
			return true
		}
	}
	return false
}

// writeBullet writes "- text". Blank text writes nothing.
func writeBullet(sb *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	sb.WriteString("- " + strings.TrimSpace(text) + "\n")
}

// ResultEmoji returns the status glyph rendered in front of a test result.
func ResultEmoji(r model.Result) string {
	switch r {
	case model.ResultPass:
		return "✅"
	case model.ResultFail:
		return "❌"
	case model.ResultPending:
		return "⏳"
	case model.ResultSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}

func checkMark(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}
