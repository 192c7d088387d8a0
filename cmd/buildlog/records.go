package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/handiism/buildlog-dashboard/internal/edit"
	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/project"
	"github.com/handiism/buildlog-dashboard/internal/scanner"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the builds of the workspace",
		Long:  "Lists documented and discovered builds, newest build date first. Discovered builds have artifacts but no build log yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWorkspace(); err != nil {
				return err
			}
			records, err := a.manager.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No builds found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BUILD\tDATE\tDEVICE\tTYPE\tFILES\tSTATE")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					rec.BuildNumber, rec.BuildDate.Format(markdown.DateLayout), orDash(rec.Device),
					rec.BuildType, len(rec.Files), recordState(rec))
			}
			return w.Flush()
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <build>",
		Short: "Print the build log of a build",
		Long:  "Prints the Markdown build log of a build and lists the mandatory fields that are still missing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadBuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.manager.Preview(rec))
			if missing := rec.MissingFields(); len(missing) > 0 {
				a.log.WithField("missing", missing).Warn("build log is incomplete")
			}
			return nil
		},
	}
}

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List the build artifacts of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWorkspace(); err != nil {
				return err
			}
			rec, err := a.manager.CreateNew()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rec.Files) == 0 {
				fmt.Fprintln(out, "No artifacts found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tSIZE\tBUILD")
			for _, f := range rec.Files {
				id := "-"
				if name, ok := scanner.ParseFileName(f.Name); ok {
					id = name.Identifier()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Size, id)
			}
			return w.Flush()
		},
	}
}

func newNewCmd(a *app) *cobra.Command {
	var (
		build      string
		device     string
		buildType  string
		android    string
		builtBy    string
		reviewedBy string
		checksums  bool
		force      bool
		edits      editFlags
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a build log from the workspace artifacts",
		Long: "Creates a new build log listing every artifact of the workspace and saves it as BUILD_LOG_{build}.md.\n" +
			"The edit flags of 'buildlog edit' fill in the rest of the log. It must pass validation unless --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWorkspace(); err != nil {
				return err
			}
			rec, err := a.manager.CreateNew()
			if err != nil {
				return err
			}

			rec.BuildNumber = strings.TrimSpace(build)
			rec.Device = strings.TrimSpace(device)
			rec.AndroidVersion = strings.TrimSpace(android)
			rec.BuiltBy = strings.TrimSpace(builtBy)
			rec.ReviewedBy = strings.TrimSpace(reviewedBy)
			if err := edit.SetField(rec, "build_type", buildType); err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			if _, err := edits.apply(cmd, rec); err != nil {
				return err
			}

			if checksums {
				if err := a.manager.ComputeChecksums(cmd.Context(), rec); err != nil {
					return err
				}
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

	cmd.Flags().StringVarP(&build, "build", "b", "", "build number")
	cmd.Flags().StringVarP(&device, "device", "d", "", "device")
	cmd.Flags().StringVarP(&buildType, "type", "t", string(model.BuildTypeUser), "build type (user, userdebug, eng)")
	cmd.Flags().StringVar(&android, "android", "", "Android version")
	cmd.Flags().StringVar(&builtBy, "built-by", "", "build engineer")
	cmd.Flags().StringVar(&reviewedBy, "reviewed-by", "", "reviewer")
	cmd.Flags().BoolVar(&checksums, "checksums", false, "compute SHA-256 checksums of the artifacts")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when mandatory fields are missing")
	edits.register(cmd)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the engineers named in the workspace build logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireWorkspace(); err != nil {
				return err
			}
			records, err := a.manager.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			builtBy, reviewedBy := project.EngineerHistory(records)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Built by: %s\n", joinOrDash(builtBy))
			fmt.Fprintf(out, "Reviewed by: %s\n", joinOrDash(reviewedBy))
			return nil
		},
	}
}

func recordState(rec *model.Record) string {
	switch {
	case rec.AutoCompleted:
		return "discovered"
	case rec.IsValid():
		return "complete"
	default:
		return fmt.Sprintf("incomplete (%d missing)", len(rec.MissingFields()))
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
