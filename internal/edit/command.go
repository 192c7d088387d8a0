package edit

import (
	"fmt"
	"strings"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// commands maps the verb of an edit command to the function applying it.
var commands = map[string]func(*model.Record, string) error{
	"set":       Assign,
	"test":      SetTest,
	"issue":     AddIssue,
	"app":       SetApp,
	"detail":    AddAppDetail,
	"rm-test":   RemoveTest,
	"rm-issue":  RemoveIssue,
	"rm-app":    RemoveApp,
	"approve":   approve,
	"unapprove": unapprove,
}

// Verbs lists the edit command verbs in help order.
var Verbs = []string{"set", "test", "issue", "app", "detail", "rm-test", "rm-issue", "rm-app", "approve", "unapprove"}

// Apply runs one edit command against rec.
//
// A command is a verb followed by its argument:
//
//	set android=14
//	test Boot Test=Pass|cold and warm boot
//	issue Wi-Fi drops|High|Open|toggle airplane mode
//	app Camera|/system/app/Camera|2.1|new HDR mode
//	detail Camera=Faster shutter
//	rm-issue Wi-Fi drops
//	approve 2026-02-01
//
// rec is left unchanged when the command fails.
func Apply(rec *model.Record, command string) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	run, ok := commands[strings.ToLower(verb)]
	if !ok {
		return fmt.Errorf("%w command %q: want one of %s", ErrInvalidValue, verb, strings.Join(Verbs, ", "))
	}
	return run(rec, strings.TrimSpace(arg))
}

func approve(rec *model.Record, date string) error {
	if strings.TrimSpace(date) == "" {
		return fmt.Errorf("%w: approve needs a date (YYYY-MM-DD)", ErrInvalidValue)
	}
	return setApproved(rec, date)
}

func unapprove(rec *model.Record, _ string) error {
	rec.ApprovedForRelease = nil
	return nil
}
