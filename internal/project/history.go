package project

import (
	"sort"
	"strings"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// EngineerHistory collects the names that appear as BuiltBy and ReviewedBy
// across records, for autocompletion.
//
// Names are trimmed, empty and placeholder names dropped, and duplicates
// removed case-insensitively keeping the first spelling seen. Both lists are
// sorted case-insensitively.
func EngineerHistory(records []*model.Record) (builtBy, reviewedBy []string) {
	var built, reviewed nameSet
	for _, rec := range records {
		built.add(rec.BuiltBy)
		reviewed.add(rec.ReviewedBy)
	}
	return built.sorted(), reviewed.sorted()
}

// Find returns the record whose build number equals build, or nil.
// A prefix ending before a "." also matches when exactly one record has it,
// so "AAL-AA-07009-01" finds the discovered build
// "AAL-AA-07009-01.20260130.062740".
func Find(records []*model.Record, build string) *model.Record {
	build = strings.TrimSpace(build)
	if build == "" {
		return nil
	}

	var prefixed *model.Record
	matches := 0
	for _, rec := range records {
		if rec.BuildNumber == build {
			return rec
		}
		if strings.HasPrefix(rec.BuildNumber, build+".") {
			prefixed = rec
			matches++
		}
	}
	if matches == 1 {
		return prefixed
	}
	return nil
}

type nameSet struct {
	seen  map[string]struct{}
	names []string
}

func (s *nameSet) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" || model.IsPlaceholder(name) {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}

	key := strings.ToLower(name)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.names = append(s.names, name)
}

func (s *nameSet) sorted() []string {
	names := append([]string{}, s.names...)
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}
