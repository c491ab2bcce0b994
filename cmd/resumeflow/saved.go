package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/registry"
	"github.com/jonathan/resumeflow/internal/session"
)

var savedCommand = &cobra.Command{
	Use:   "saved",
	Short: "List, inspect and download saved resumes",
}

var savedListCommand = &cobra.Command{
	Use:   "list",
	Short: "List saved resumes",
	RunE:  runSavedList,
}

var savedQACommand = &cobra.Command{
	Use:   "qa <record-id|row>",
	Short: "Show the interview questions saved with a resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedQA,
}

var savedDownloadCommand = &cobra.Command{
	Use:   "download <record-id|row>",
	Short: "Download a saved resume file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedDownload,
}

var (
	savedFilter string
	savedSort   string
	savedOrder  string
	savedOut    string
)

func init() {
	savedCommand.PersistentFlags().StringVar(&savedFilter, "filter", analysis.AllRoles, "Role filter")
	savedCommand.PersistentFlags().StringVar(&savedSort, "sort", string(analysis.SortByTimestamp), "Sort key: name, score or time")
	savedCommand.PersistentFlags().StringVar(&savedOrder, "order", string(analysis.Descending), "Sort order: asc or desc")
	savedDownloadCommand.Flags().StringVarP(&savedOut, "out", "o", "", "Output path (defaults to <download_dir>/<resume filename>)")

	savedCommand.AddCommand(savedListCommand, savedQACommand, savedDownloadCommand)
	rootCmd.AddCommand(savedCommand)
}

func savedCriteria() (registry.Criteria, error) {
	key, ok := analysis.ParseSortKey(savedSort)
	if !ok {
		return registry.Criteria{}, fmt.Errorf("unknown sort key %q", savedSort)
	}
	order := analysis.SortOrder(savedOrder)
	if order != analysis.Ascending && order != analysis.Descending {
		return registry.Criteria{}, fmt.Errorf("unknown sort order %q", savedOrder)
	}
	return registry.Criteria{Filter: savedFilter, SortKey: key, SortOrder: order}, nil
}

// listed opens a session whose saved list matches the command flags.
func listed(cmd *cobra.Command) (*app, *session.Session, error) {
	c, err := savedCriteria()
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	s := a.newSession(nil)
	if err := s.Apply(cmd.Context(), session.SetCriteria{Criteria: c}); err != nil {
		a.printer.PrintGateway(s.Gateway().State())
		a.close()
		return nil, nil, err
	}
	return a, s, nil
}

func runSavedList(cmd *cobra.Command, _ []string) error {
	a, s, err := listed(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	snap := s.Snapshot()
	a.printer.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
	return nil
}

func runSavedQA(cmd *cobra.Command, args []string) error {
	a, s, err := listed(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	id := recordRef(s, args[0])
	if err := s.Apply(cmd.Context(), session.ToggleDetail{RecordID: id}); err != nil {
		a.printer.PrintGateway(s.Gateway().State())
		return err
	}
	rec, _ := s.Registry().Record(id)
	if rec.QADetail != nil {
		fmt.Fprintln(cmd.OutOrStdout(), *rec.QADetail) //nolint:errcheck
	}
	return nil
}

// recordRef turns a record id or list row number into a record id.
func recordRef(s *session.Session, ref string) string {
	if id, ok := s.Registry().Resolve(ref); ok {
		return id
	}
	return ref
}

func runSavedDownload(cmd *cobra.Command, args []string) error {
	a, s, err := listed(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	rec, ok := s.Registry().Record(recordRef(s, args[0]))
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrUnknownRecord, args[0])
	}
	dest := savedOut
	if dest == "" {
		name := filepath.Base(rec.ResumeFilename)
		if rec.ResumeFilename == "" {
			name = rec.ID + ".pdf"
		}
		dest = filepath.Join(a.cfg.DownloadDir, name)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	applyErr := s.Apply(cmd.Context(), session.Download{RecordID: rec.ID, Dest: f})
	closeErr := f.Close()
	if applyErr != nil {
		_ = os.Remove(dest)
		a.printer.PrintGateway(s.Gateway().State())
		return applyErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", dest, closeErr)
	}
	a.printer.PrintSuccess("Saved " + dest)
	return nil
}
