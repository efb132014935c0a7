package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ossyrian/carc/internal/engine"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new archive from a directory (requires -s and -d)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireDir("source", cfg.SourcePath); err != nil {
			return err
		}
		if err := engine.RequireAbsent("destination", cfg.DestinationPath); err != nil {
			return err
		}
		if _, err := eng.Create(cfg.SourcePath, cfg.DestinationPath); err != nil {
			return fmt.Errorf("an error occurred while creating the archive: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Finished creating.")
		return nil
	},
}

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a directory to an existing archive (requires -s and -d)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireDir("source", cfg.SourcePath); err != nil {
			return err
		}
		if err := engine.RequireFile("destination", cfg.DestinationPath); err != nil {
			return err
		}
		if _, err := eng.Append(cfg.DestinationPath, cfg.SourcePath); err != nil {
			return fmt.Errorf("an error occurred while appending to the archive: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Finished appending.")
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract an archive into a directory without overwriting files (requires -s and -d)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireFile("source", cfg.SourcePath); err != nil {
			return err
		}
		if err := engine.RequirePath("destination", cfg.DestinationPath); err != nil {
			return err
		}
		res, err := eng.Extract(cfg.SourcePath, cfg.DestinationPath)
		if err != nil {
			return fmt.Errorf("an error occurred while extracting from the archive: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Finished extracting (%d extracted, %d skipped).\n",
			len(res.Extracted), len(res.Skipped))
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the meta information of an archive (requires -s)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireFile("source", cfg.SourcePath); err != nil {
			return err
		}
		s, err := eng.Info(cfg.SourcePath)
		if err != nil {
			return fmt.Errorf("an error occurred while retrieving the meta information from the archive: %w", err)
		}
		printSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files stored in an archive (requires -s)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireFile("source", cfg.SourcePath); err != nil {
			return err
		}
		names, err := eng.List(cfg.SourcePath)
		if err != nil {
			return fmt.Errorf("an error occurred while retrieving the meta information from the archive: %w", err)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every stored file against its recorded digest (requires -s)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.RequireFile("source", cfg.SourcePath); err != nil {
			return err
		}
		res, err := eng.Verify(cfg.SourcePath)
		if err != nil {
			return fmt.Errorf("an error occurred while verifying the archive: %w", err)
		}
		for _, m := range res.Mismatches {
			fmt.Fprintf(cmd.OutOrStdout(), "FAILED %s: %s\n", m.RelativePath, m.Reason)
		}
		if !res.OK() {
			return fmt.Errorf("%d of %d files failed verification", len(res.Mismatches), res.Checked)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "All %d files verified.\n", res.Checked)
		return nil
	},
}

func printSummary(w io.Writer, s engine.Summary) {
	fmt.Fprintf(w, "UTC creation date: %s\n", s.CreationDate.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Run-length-encoding enabled: %t\n", s.CompressionEnabled)
	fmt.Fprintf(w, "Number of files archived: %d\n", s.FileCount)
	fmt.Fprintf(w, "Size of all files archived: %d\n\n", s.TotalStoredSize)

	for _, f := range s.Files {
		if s.CompressionEnabled {
			fmt.Fprintf(w, "File: %s, uncompressed size: %d bytes, compressed size: %d bytes\n",
				f.Name, f.UncompressedSize, f.CompressedSize)
		} else {
			fmt.Fprintf(w, "File: %s, uncompressed size: %d bytes\n", f.Name, f.UncompressedSize)
		}
	}
}
