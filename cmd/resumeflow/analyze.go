package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/session"
	"github.com/jonathan/resumeflow/internal/upload"
	"github.com/jonathan/resumeflow/internal/workflow"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Parse a resume and score it against a job description in one run",
	Long: `Uploads and parses the resume, selects the job description (a catalog role or a text file),
then computes the fit score and interview questions. Table, check and JD match are optional.
With --confirm the result is saved.`,
	RunE: runAnalyzeCmd,
}

var (
	analyzeFile    string
	analyzeRole    string
	analyzeJDFile  string
	analyzeTable   bool
	analyzeCheck   bool
	analyzeMatch   bool
	analyzeConfirm bool
)

func init() {
	analyzeCommand.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to the PDF resume (required)")
	analyzeCommand.Flags().StringVarP(&analyzeRole, "role", "r", "", "Job description role (defaults to the configured default role)")
	analyzeCommand.Flags().StringVar(&analyzeJDFile, "jd-file", "", "Path to a custom job description text file (mutually exclusive with --role)")
	analyzeCommand.Flags().BoolVar(&analyzeTable, "table", false, "Also generate the resume table")
	analyzeCommand.Flags().BoolVar(&analyzeCheck, "check", false, "Also run the resume check")
	analyzeCommand.Flags().BoolVar(&analyzeMatch, "match", false, "Also run the JD match")
	analyzeCommand.Flags().BoolVar(&analyzeConfirm, "confirm", false, "Save the result")

	_ = analyzeCommand.MarkFlagRequired("file")
	analyzeCommand.MarkFlagsMutuallyExclusive("role", "jd-file")

	rootCmd.AddCommand(analyzeCommand)
}

// analyzePlan lists the intents of one analyze run in order.
func analyzePlan(f *upload.File, role, jdText string, table, check, match, confirm bool) []session.Intent {
	plan := []session.Intent{
		session.Bootstrap{},
		session.SelectFile{File: f},
		session.Parse{},
	}
	switch {
	case jdText != "":
		plan = append(plan, session.SelectRole{Role: analysis.CustomRole}, session.SetJDText{Text: jdText})
	case role != "":
		plan = append(plan, session.SelectRole{Role: role})
	}
	if table {
		plan = append(plan, session.RunAnalysis{Kind: analysis.KindTable})
	}
	if check {
		plan = append(plan, session.RunAnalysis{Kind: analysis.KindCheck})
	}
	if match {
		plan = append(plan, session.RunAnalysis{Kind: analysis.KindJDMatch})
	}
	plan = append(plan,
		session.RunAnalysis{Kind: analysis.KindFitScore},
		session.RunAnalysis{Kind: analysis.KindQA},
	)
	if confirm {
		plan = append(plan, session.Confirm{})
	}
	return plan
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	f, err := upload.Inspect(analyzeFile, a.cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	var jdText string
	if analyzeJDFile != "" {
		data, err := os.ReadFile(analyzeJDFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jdText = string(data)
		if jdText == "" {
			return fmt.Errorf("job description file %s is empty", analyzeJDFile)
		}
	}

	plan := analyzePlan(f, analyzeRole, jdText, analyzeTable, analyzeCheck, analyzeMatch, analyzeConfirm)
	return runPlan(cmd.Context(), a, plan)
}

// runPlan applies intents in order and stops at the first failure.
func runPlan(ctx context.Context, a *app, plan []session.Intent) error {
	s := a.newSession(nil)
	for _, in := range plan {
		err := s.Apply(ctx, in)
		r := session.Result{Intent: in, Err: err, Snapshot: s.Snapshot()}
		if err != nil {
			a.printer.PrintGateway(r.Snapshot.Gateway)
			if _, ok := in.(session.Parse); ok {
				a.printer.PrintOutput(r.Snapshot.Document, workflow.ViewParse)
			}
			return fmt.Errorf("%s failed", in.Name())
		}
		switch in.(type) {
		case session.RunAnalysis, session.Confirm:
			render(a.printer, r)
		}
	}
	return nil
}
