package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ioutils "github.com/handiism/buildlog-dashboard/internal/io"
	"github.com/handiism/buildlog-dashboard/internal/project"
)

func newChecksumCmd(a *app) *cobra.Command {
	var (
		save  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "checksum <build>",
		Short: "Compute SHA-256 checksums of a build's artifacts",
		Long:  "Hashes every artifact of the build that exists in the workspace. With --save the updated build log is written back.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadBuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.manager.ComputeChecksums(cmd.Context(), rec); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, f := range rec.Files {
				fmt.Fprintf(w, "%s\t%s\n", f.SHA256, f.Name)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !save {
				return nil
			}
			if err := a.checkValid(rec, force); err != nil {
				return err
			}
			_, err = a.manager.Save(cmd.Context(), rec)
			return err
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the checksums back to the build log")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when mandatory fields are missing")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export <build>",
		Short: "Export a build log as Markdown, HTML, PDF or JSON",
		Long: "Exports a build log. Without --out the file is BUILD_LOG_{build}.{ext} in the export directory\n" +
			"(export_path in the config, or the workspace). The log must pass validation unless --force is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadBuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.checkValid(rec, force); err != nil {
				return err
			}

			path, err := a.manager.Export(cmd.Context(), rec, format, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", project.FormatMarkdown, "output format: md, html, pdf or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "export even when mandatory fields are missing")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		save  bool
		force bool
		edits editFlags
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a build log from a Markdown or JSON file",
		Long: "Reads a build log from a .md or .json file and prints it. With --save it is written into the workspace as BUILD_LOG_{build}.md.\n" +
			"The edit flags of 'buildlog edit' are applied to the imported log first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.manager.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := edits.apply(cmd, rec); err != nil {
				return err
			}

			if !save {
				fmt.Fprint(cmd.OutOrStdout(), a.manager.Preview(rec))
				return nil
			}

			if err := a.requireWorkspace(); err != nil {
				return err
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

	cmd.Flags().BoolVar(&save, "save", false, "save the imported log into the workspace")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "save even when mandatory fields are missing")
	edits.register(cmd)
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		dpi       int
		out       string
		thumbnail int
	)

	cmd := &cobra.Command{
		Use:   "preview <build>",
		Short: "Render page previews of a build log as PNG images",
		Long: "Renders the build log into page images named {build}-page-01.png, {build}-page-02.png, ... in the output directory.\n" +
			"With --thumbnail N, scaled copies named {build}-thumb-01.png, ... are written as well.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadBuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			pages, err := a.manager.PreviewImages(cmd.Context(), rec, dpi)
			if err != nil {
				return err
			}
			if err := ioutils.EnsureDir(out); err != nil {
				return err
			}

			prefix := ioutils.SanitizeFileName(rec.BuildNumber)
			if err := writePages(cmd, out, prefix, "page", pages); err != nil {
				return err
			}
			if thumbnail <= 0 {
				return nil
			}

			thumbs, err := a.manager.Thumbnails(cmd.Context(), pages, thumbnail)
			if err != nil {
				return err
			}
			return writePages(cmd, out, prefix, "thumb", thumbs)
		},
	}

	cmd.Flags().IntVar(&dpi, "dpi", 0, "resolution in dots per inch (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	cmd.Flags().IntVar(&thumbnail, "thumbnail", 0, "also write thumbnails fitting within N pixels")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a generated build log document",
		Long:  "Deletes a .md, .html, .pdf or .json build log document. Build artifacts are never deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			// Bare names refer to the workspace
			if !filepath.IsAbs(path) && !fileExists(path) && a.manager.Workspace() != "" {
				path = filepath.Join(a.manager.Workspace(), path)
			}
			return a.manager.DeleteDocument(path)
		},
	}
}

// writePages writes each image to dir as {prefix}-{kind}-NN.png and prints
// its path.
func writePages(cmd *cobra.Command, dir, prefix, kind string, images [][]byte) error {
	for i, data := range images {
		path := filepath.Join(dir, fmt.Sprintf("%s-%s-%02d.png", prefix, kind, i+1))
		if err := ioutils.WriteFile(cmd.Context(), path, data); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
