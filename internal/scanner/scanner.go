package scanner

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// fileNamePattern is the artifact naming contract:
//
//	{device}-{buildnum}.{yyyymmdd}.{time}.{zip|json}
//
// Device is everything before the first dash; the build number is everything
// between that dash and the 8-digit date.
var fileNamePattern = regexp.MustCompile(`(?i)^(?P<device>[^-]+)-(?P<buildnum>.+?)\.(?P<date>\d{8})\.(?P<time>\d+)\.(?P<ext>zip|json)$`)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ArtifactName holds the components parsed from an artifact file name.
type ArtifactName struct {
	Device      string
	BuildNumber string
	Date        string
	Time        string
}

// Identifier returns the composite build identifier "{build}.{date}.{time}".
func (a ArtifactName) Identifier() string {
	return a.BuildNumber + "." + a.Date + "." + a.Time
}

// Scanner discovers build artifacts in a workspace directory.
//
// Scanner works on the direct children of a directory only. Files with a
// .zip or .json extension are artifacts; those whose names follow the naming
// contract can additionally be grouped by build identifier.
//
// Example:
//
//	s := NewScanner()
//	ids, _ := s.UniqueIdentifiers("/builds")
//	for _, id := range ids {
//	    rec, _ := s.BuildRecordFromFiles("/builds", id)
//	    fmt.Println(rec.Device, rec.BuildNumber, len(rec.Files))
//	}
type Scanner struct {
	// Now supplies the default dates for synthesized records.
	Now func() time.Time
}

// NewScanner creates a Scanner using the wall clock.
func NewScanner() *Scanner {
	return &Scanner{Now: time.Now}
}

// ParseFileName splits an artifact file name into its components.
//
// Returns false for names that do not follow the naming contract; callers
// use this to skip unrelated files silently.
//
// Example:
//
//	name, ok := ParseFileName("gpn600_001-AAL-AA-07009-01.20260130.062740.zip")
//	// name.Device = "gpn600_001", name.BuildNumber = "AAL-AA-07009-01"
//	// name.Date = "20260130", name.Time = "062740"
func ParseFileName(fileName string) (ArtifactName, bool) {
	m := fileNamePattern.FindStringSubmatch(fileName)
	if m == nil {
		return ArtifactName{}, false
	}
	return ArtifactName{
		Device:      m[fileNamePattern.SubexpIndex("device")],
		BuildNumber: m[fileNamePattern.SubexpIndex("buildnum")],
		Date:        m[fileNamePattern.SubexpIndex("date")],
		Time:        m[fileNamePattern.SubexpIndex("time")],
	}, true
}

// Scan lists the artifact files directly inside dir.
//
// Every regular file (or symlink to one) ending in .zip or .json (case-insensitive) is returned
// with its display name, formatted size, absolute path and a "-" hash
// placeholder, in file name order. A directory that does not exist yields an
// empty list, not an error.
func (s *Scanner) Scan(dir string) ([]*model.BuildFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []*model.BuildFile
	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}

		path, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		// Stat follows symlinks; dangling links and vanished files are skipped
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		f := model.NewBuildFile(entry.Name(), FormatSize(info.Size()))
		f.Path = path
		files = append(files, f)
	}

	return files, nil
}

// UniqueIdentifiers returns the distinct build identifiers found in dir,
// most recent first.
//
// Identifiers sort descending byte-wise; with zero-padded dates and times
// that puts the newest build of each number first. Files that do not follow
// the naming contract are ignored.
func (s *Scanner) UniqueIdentifiers(dir string) ([]string, error) {
	files, err := s.Scan(dir)
	if err != nil {
		return nil, err
	}

	idSet := make(map[string]struct{})
	for _, f := range files {
		if name, ok := ParseFileName(f.Name); ok {
			idSet[name.Identifier()] = struct{}{}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	return ids, nil
}

// BuildRecordFromFiles synthesizes a record for one build identifier.
//
// All artifacts whose identifier equals id exactly are attached. From the
// first of them the record takes:
//   - Device: the file name device with "_" replaced by "-", upper-cased
//   - BuildNumber: the full identifier
//   - BuildDate: the yyyymmdd date component (left at now if invalid)
//
// When nothing matches, the record is returned empty with no build number.
func (s *Scanner) BuildRecordFromFiles(dir, id string) (*model.Record, error) {
	rec := model.NewRecord(s.now())

	files, err := s.Scan(dir)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		name, ok := ParseFileName(f.Name)
		if !ok || name.Identifier() != id {
			continue
		}

		if len(rec.Files) == 0 {
			rec.Device = strings.ToUpper(strings.ReplaceAll(name.Device, "_", "-"))
			rec.BuildNumber = name.Identifier()
			if date, err := time.ParseInLocation("20060102", name.Date, time.Local); err == nil {
				rec.BuildDate = date
			}
		}
		rec.AddFile(f)
	}

	return rec, nil
}

// FormatSize renders a byte count with binary units.
//
// The value is divided by 1024 while it is at least 1024 (up to TB) and
// rounded to at most two decimals, without trailing zeros.
//
// Example:
//
//	FormatSize(0)       // "0 B"
//	FormatSize(1536)    // "1.5 KB"
//	FormatSize(1048576) // "1 MB"
func FormatSize(bytes int64) string {
	size := float64(bytes)
	order := 0
	for size >= 1024 && order < len(sizeUnits)-1 {
		order++
		size /= 1024
	}

	rounded := math.Round(size*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[order]
}

// isArtifact reports whether name has an artifact extension.
func isArtifact(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".zip" || ext == ".json"
}

func (s *Scanner) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
