package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/buildlog-dashboard/internal/edit"
	"github.com/handiism/buildlog-dashboard/internal/model"
)

// editFlags are the record edits shared by new and edit.
type editFlags struct {
	set         []string
	tests       []string
	issues      []string
	apps        []string
	details     []string
	removeTests []string
	removeIssue []string
	removeApps  []string
	customer    bool
	approved    string
}

func (f *editFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVar(&f.set, "set", nil, "set a field, field=value (repeatable; fields: "+strings.Join(edit.FieldNames(), ", ")+")")
	fl.StringArrayVar(&f.tests, "test", nil, `set a test result, "Name=Pass|notes" (repeatable)`)
	fl.StringArrayVar(&f.issues, "issue", nil, `add a known issue, "Issue|Severity|Status|Workaround" (repeatable)`)
	fl.StringArrayVar(&f.apps, "app", nil, `add or update an app, "Name|Path|Version|Changes" (repeatable)`)
	fl.StringArrayVar(&f.details, "app-detail", nil, `add an app detail line, "App=detail" (repeatable)`)
	fl.StringArrayVar(&f.removeTests, "remove-test", nil, "remove a test by name (repeatable)")
	fl.StringArrayVar(&f.removeIssue, "remove-issue", nil, "remove a known issue by text (repeatable)")
	fl.StringArrayVar(&f.removeApps, "remove-app", nil, "remove an app by name (repeatable)")
	fl.BoolVar(&f.customer, "customer-release", false, "recommend the build for customer release")
	fl.StringVar(&f.approved, "approved", "", "approval date (YYYY-MM-DD)")
}

// apply mutates rec in flag order: removals, then fields, then list entries.
// It reports whether any edit flag was given.
func (f *editFlags) apply(cmd *cobra.Command, rec *model.Record) (bool, error) {
	changed := false
	steps := []struct {
		flag   string
		values []string
		fn     func(*model.Record, string) error
	}{
		{"remove-test", f.removeTests, edit.RemoveTest},
		{"remove-issue", f.removeIssue, edit.RemoveIssue},
		{"remove-app", f.removeApps, edit.RemoveApp},
		{"set", f.set, edit.Assign},
		{"test", f.tests, edit.SetTest},
		{"issue", f.issues, edit.AddIssue},
		{"app", f.apps, edit.SetApp},
		{"app-detail", f.details, edit.AddAppDetail},
	}
	for _, step := range steps {
		for _, v := range step.values {
			if err := step.fn(rec, v); err != nil {
				return changed, fmt.Errorf("--%s: %w", step.flag, err)
			}
			changed = true
		}
	}

	if cmd.Flags().Changed("customer-release") {
		rec.CustomerRelease = f.customer
		changed = true
	}
	if cmd.Flags().Changed("approved") {
		if err := edit.SetField(rec, "approved", f.approved); err != nil {
			return changed, fmt.Errorf("--approved: %w", err)
		}
		changed = true
	}
	return changed, nil
}

func newEditCmd(a *app) *cobra.Command {
	var (
		flags editFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "edit <build>",
		Short: "Edit a build log and save it",
		Long: "Applies the given edits to a documented or discovered build and saves it as BUILD_LOG_{build}.md.\n" +
			"The log must pass validation unless --force is given.\n\n" +
			"Examples:\n" +
			"  buildlog edit AAL-AA-07009-01 --test \"Boot Test=Pass\" --test \"OTA Update Test=Skipped|no server\"\n" +
			"  buildlog edit AAL-AA-07009-01 --set android_version=14 --set \"system_modifications=one\\ntwo\"\n" +
			"  buildlog edit AAL-AA-07009-01 --issue \"Wi-Fi drops|High|Open|toggle airplane mode\" --approved 2026-02-01",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadBuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			changed, err := flags.apply(cmd, rec)
			if err != nil {
				return err
			}
			if !changed {
				return fmt.Errorf("no edits given; use --set, --test, --issue, --app, --app-detail, --remove-*, --customer-release or --approved")
			}

			if err := a.checkValid(rec, force); err != nil {
				return err
			}
			path, err := a.manager.Save(cmd.Context(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when mandatory fields are missing")
	return cmd
}
