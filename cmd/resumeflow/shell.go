package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/session"
	"github.com/jonathan/resumeflow/internal/upload"
	"github.com/jonathan/resumeflow/internal/workflow"
)

var shellCommand = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive analysis session",
	Long: `Starts an interactive session against the analysis service. Each line is one command; type
"help" for the list. Commands are applied one at a time in the order they are entered.`,
	RunE: runShellCmd,
}

func init() {
	rootCmd.AddCommand(shellCommand)
}

const shellHelp = `Commands:
  file <path>            select a PDF resume
  parse                  parse the selected resume
  table | check          resume table, resume check
  match | qa | fit       JD match, interview questions, fit score
  role <name>            choose a job description role ("Custom Input" to type your own)
  jd <text> | jd @file   set the custom job description
  view <name>            show parse, table, check, jd-match, interview-qa or all-resumes
  status                 show the document and roles
  confirm                save the document
  clear                  discard the current document
  saved                  refresh and show saved resumes
  sort <key>             sort saved resumes by name, score or time (again to reverse)
  filter <role>          filter saved resumes ("All Roles" for all)
  detail <id|#>          show or hide a saved resume's interview Q&A
  download <id|#> [path] download a saved resume
  clear-all              delete ALL saved data
  help | quit`

// shellLine is one parsed shell command.
type shellLine struct {
	intent   session.Intent
	file     string // select this file after inspecting it
	jdFile   string // read the custom JD from this file
	download string // record id to download
	dest     string
	clearAll bool
	help     bool
	quit     bool
}

func parseShellLine(line string) (shellLine, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return shellLine{}, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		return shellLine{help: true}, nil
	case "quit", "exit":
		return shellLine{quit: true}, nil
	case "file":
		if rest == "" {
			return shellLine{}, errors.New("usage: file <path>")
		}
		return shellLine{file: rest}, nil
	case "parse":
		return shellLine{intent: session.Parse{}}, nil
	case "table":
		return shellLine{intent: session.RunAnalysis{Kind: analysis.KindTable}}, nil
	case "check":
		return shellLine{intent: session.RunAnalysis{Kind: analysis.KindCheck}}, nil
	case "match":
		return shellLine{intent: session.RunAnalysis{Kind: analysis.KindJDMatch}}, nil
	case "qa":
		return shellLine{intent: session.RunAnalysis{Kind: analysis.KindQA}}, nil
	case "fit", "score":
		return shellLine{intent: session.RunAnalysis{Kind: analysis.KindFitScore}}, nil
	case "role":
		if rest == "" {
			return shellLine{}, errors.New("usage: role <name>")
		}
		return shellLine{intent: session.SelectRole{Role: unquote(rest)}}, nil
	case "jd":
		if strings.HasPrefix(rest, "@") {
			return shellLine{jdFile: strings.TrimPrefix(rest, "@")}, nil
		}
		return shellLine{intent: session.SetJDText{Text: rest}}, nil
	case "view":
		v, ok := workflow.ParseView(rest)
		if !ok {
			return shellLine{}, fmt.Errorf("unknown view %q", rest)
		}
		return shellLine{intent: session.ShowView{View: v}}, nil
	case "status":
		return shellLine{intent: session.Inspect{}}, nil
	case "confirm":
		return shellLine{intent: session.Confirm{}}, nil
	case "clear":
		return shellLine{intent: session.ClearOutputs{}}, nil
	case "saved":
		return shellLine{intent: session.ShowView{View: workflow.ViewSaved}}, nil
	case "sort":
		key, ok := analysis.ParseSortKey(rest)
		if !ok {
			return shellLine{}, fmt.Errorf("unknown sort key %q", rest)
		}
		return shellLine{intent: session.SetSort{Key: key}}, nil
	case "filter":
		if rest == "" {
			rest = analysis.AllRoles
		}
		return shellLine{intent: session.SetFilter{Role: unquote(rest)}}, nil
	case "detail":
		if rest == "" {
			return shellLine{}, errors.New("usage: detail <id>")
		}
		return shellLine{intent: session.ToggleDetail{RecordID: rest}}, nil
	case "download":
		fields := strings.Fields(rest)
		if len(fields) == 0 || len(fields) > 2 {
			return shellLine{}, errors.New("usage: download <id> [path]")
		}
		sl := shellLine{download: fields[0]}
		if len(fields) == 2 {
			sl.dest = fields[1]
		}
		return sl, nil
	case "clear-all":
		return shellLine{clearAll: true}, nil
	}
	return shellLine{}, fmt.Errorf("unknown command %q (try help)", cmd)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func runShellCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return runShell(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runShell reads commands on one goroutine and applies them on another.
// The reader waits for each intent to be applied before prompting again.
func runShell(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	g, gCtx := errgroup.WithContext(ctx)

	applied := make(chan session.Result)
	s := a.newSession(func(r session.Result) {
		render(a.printer, r)
		select {
		case applied <- r:
		case <-gCtx.Done():
		}
	})

	g.Go(func() error {
		return s.Run(gCtx)
	})

	g.Go(func() error {
		defer s.Close()
		sh := &shell{app: a, session: s, applied: applied, in: bufio.NewReader(in), out: out}
		return sh.loop(gCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type shell struct {
	app     *app
	session *session.Session
	applied chan session.Result
	in      *bufio.Reader
	out     io.Writer
}

// submit queues in and waits until it has been applied.
func (sh *shell) submit(ctx context.Context, in session.Intent) (session.Result, error) {
	if err := sh.session.Submit(ctx, in); err != nil {
		return session.Result{}, err
	}
	select {
	case r := <-sh.applied:
		return r, nil
	case <-ctx.Done():
		return session.Result{}, ctx.Err()
	}
}

// readLine reads one line from the input, giving up when ctx is done. An abandoned read
// keeps its goroutine until the input yields a line or is closed.
func (sh *shell) readLine(ctx context.Context) (string, error) {
	type read struct {
		line string
		err  error
	}
	ch := make(chan read, 1)
	go func() {
		line, err := sh.in.ReadString('\n')
		ch <- read{line, err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (sh *shell) loop(ctx context.Context) error {
	fmt.Fprintf(sh.out, "Connecting to %s ...\n", sh.app.cfg.APIBaseURL)
	if _, err := sh.submit(ctx, session.Bootstrap{}); err != nil {
		return err
	}
	sh.app.printer.PrintHint(`Type "help" for commands.`)

	for {
		fmt.Fprint(sh.out, "resumeflow> ")
		line, err := sh.readLine(ctx)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		if line != "" {
			quit, cmdErr := sh.handle(ctx, line)
			if cmdErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(sh.out, "%v\n", cmdErr)
			}
			if quit {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(sh.out)
			return nil
		}
	}
}

func (sh *shell) handle(ctx context.Context, line string) (bool, error) {
	sl, err := parseShellLine(line)
	if err != nil {
		return false, err
	}

	switch {
	case sl.quit:
		return true, nil
	case sl.help:
		fmt.Fprintln(sh.out, shellHelp) //nolint:errcheck
		return false, nil
	case sl.file != "":
		f, err := upload.Inspect(sl.file, sh.app.cfg.MaxUploadBytes)
		if err != nil {
			return false, err
		}
		_, err = sh.submit(ctx, session.SelectFile{File: f})
		return false, err
	case sl.jdFile != "":
		data, err := os.ReadFile(sl.jdFile)
		if err != nil {
			return false, fmt.Errorf("failed to read job description: %w", err)
		}
		_, err = sh.submit(ctx, session.SetJDText{Text: string(data)})
		return false, err
	case sl.clearAll:
		fmt.Fprintf(sh.out, "%s [y/N]: ", workflow.ClearEverythingPrompt) //nolint:errcheck
		answer, err := sh.readLine(ctx)
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		if !isYes(answer) {
			sh.app.printer.PrintHint("Cancelled.")
			return false, nil
		}
		_, err = sh.submit(ctx, session.ClearEverything{Confirmer: answered(true)})
		return false, err
	case sl.download != "":
		return false, sh.download(ctx, sl.download, sl.dest)
	case sl.intent != nil:
		_, err := sh.submit(ctx, sl.intent)
		return false, err
	}
	return false, nil
}

func (sh *shell) download(ctx context.Context, recordID, dest string) error {
	if dest == "" {
		dest = filepath.Join(sh.app.cfg.DownloadDir, recordID+".pdf")
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	r, err := sh.submit(ctx, session.Download{RecordID: recordID, Dest: f})
	closeErr := f.Close()
	if err != nil || r.Err != nil {
		// the failure itself is already in the error slot
		_ = os.Remove(dest)
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", dest, closeErr)
	}
	fmt.Fprintf(sh.out, "Saved %s\n", dest) //nolint:errcheck
	return nil
}
