package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/gateway"
	"github.com/jonathan/resumeflow/internal/upload"
)

// DefaultRole is the job description role selected before the user picks one.
const DefaultRole = "Software Engineer"

// ClearEverythingPrompt is shown before all saved data is deleted.
const ClearEverythingPrompt = "WARNING: This will delete ALL saved resumes and analyses permanently. Are you sure?"

// ErrNoConfirmer is returned when an irreversible action is requested without a way to approve it.
var ErrNoConfirmer = errors.New("no confirmer for irreversible action")

// SavedList is the part of the saved-record registry the engine drives.
type SavedList interface {
	Refresh(ctx context.Context) error
	SetFilter(ctx context.Context, role string) error
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	ConfirmAction(prompt string) (bool, error)
}

// Options configures an Engine.
type Options struct {
	DefaultRole string
	Now         func() time.Time
}

// Engine owns the current document and enforces which operations may run.
// It is not safe for concurrent use; callers serialize operations.
type Engine struct {
	svc     analysis.Service
	gw      *gateway.Gateway
	saved   SavedList
	log     *zap.Logger
	now     func() time.Time
	doc     Document
	catalog Catalog
}

// NewEngine creates an engine with an empty document.
func NewEngine(svc analysis.Service, gw *gateway.Gateway, saved SavedList, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = DefaultRole
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		svc:   svc,
		gw:    gw,
		saved: saved,
		log:   log.Named("workflow"),
		now:   opts.Now,
		doc: Document{
			Stage:      StageEmpty,
			JDRole:     opts.DefaultRole,
			ActiveView: ViewParse,
		},
	}
}

// Document returns a copy of the current document.
func (e *Engine) Document() Document {
	return e.doc
}

// Catalog returns the loaded role catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// LoadCatalog installs the role catalog and the default job description fetched at startup.
func (e *Engine) LoadCatalog(roles []string, defaultJD string) {
	e.catalog = Catalog{Roles: roles}
	e.doc.JDText = defaultJD
}

// SelectFile replaces the source file and discards everything derived from the previous one.
// A nil file leaves the document empty.
func (e *Engine) SelectFile(f *upload.File) {
	jdRole, jdText := e.doc.JDRole, e.doc.JDText
	e.doc = Document{
		Stage:      StageUploaded,
		File:       f,
		JDRole:     jdRole,
		JDText:     jdText,
		ActiveView: e.doc.ActiveView,
	}
	if f == nil {
		e.doc.Stage = StageEmpty
	}
	e.gw.ClearError()
	e.log.Info("file selected", zap.String("stage", string(e.doc.Stage)))
}

// Parse uploads the selected file and records the collaborator's reading of it.
// On failure the parse view shows the error in place of output.
func (e *Engine) Parse(ctx context.Context) error {
	if err := e.require(OpParse); err != nil {
		return err
	}

	file := e.doc.File
	out := gateway.Run(ctx, e.gw, GateRegistry[OpParse].Label, func(ctx context.Context) (*analysis.ParseResult, error) {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		defer func() { _ = rc.Close() }()
		return e.svc.Parse(ctx, file.Name, rc)
	})
	if !out.OK {
		e.doc.ParseDisplay = fmt.Sprintf("```plain\nError: %s\n```", out.Message())
		return out.Err
	}

	res := out.Value
	e.doc.CanonicalText = res.CanonicalText
	e.doc.ExtractedName = res.ExtractedName
	e.doc.StagingID = res.StagingID
	e.doc.ParseDisplay = res.DisplayText
	e.doc.Stage = StageParsed
	e.doc.ActiveView = ViewParse
	e.log.Info("resume parsed",
		zap.String("stage", string(e.doc.Stage)),
		zap.String("name", res.ExtractedName),
	)
	return nil
}

// GenerateTable renders the parsed resume as a structured table.
func (e *Engine) GenerateTable(ctx context.Context) error {
	return e.analyze(ctx, analysis.KindTable)
}

// RunCheck reviews the parsed resume.
func (e *Engine) RunCheck(ctx context.Context) error {
	return e.analyze(ctx, analysis.KindCheck)
}

// MatchJD compares the parsed resume with the job description.
func (e *Engine) MatchJD(ctx context.Context) error {
	return e.analyze(ctx, analysis.KindJDMatch)
}

// GenerateQA produces interview questions for the resume and job description.
func (e *Engine) GenerateQA(ctx context.Context) error {
	return e.analyze(ctx, analysis.KindQA)
}

// ComputeFitScore scores the resume against the job description. The active view is kept.
func (e *Engine) ComputeFitScore(ctx context.Context) error {
	return e.analyze(ctx, analysis.KindFitScore)
}

// Analyze runs the analysis of the given kind.
func (e *Engine) Analyze(ctx context.Context, kind analysis.Kind) error {
	return e.analyze(ctx, kind)
}

func (e *Engine) analyze(ctx context.Context, kind analysis.Kind) error {
	op, ok := opForKind[kind]
	if !ok {
		return fmt.Errorf("unknown analysis kind: %s", kind)
	}
	if err := e.require(op); err != nil {
		return err
	}

	req := analysis.AnalysisRequest{CanonicalText: e.doc.CanonicalText, JDText: e.doc.JDText}
	out := gateway.Run(ctx, e.gw, GateRegistry[op].Label, func(ctx context.Context) (string, error) {
		return e.svc.Analyze(ctx, kind, req)
	})
	if !out.OK {
		return out.Err
	}

	e.doc.Outputs.set(kind, out.Value)
	if v, ok := viewForKind[kind]; ok {
		e.doc.ActiveView = v
	}
	e.log.Info("analysis stored", zap.String("kind", string(kind)), zap.String("view", string(e.doc.ActiveView)))
	return nil
}

// SelectJDRole switches the job description role. The custom role clears the text for editing;
// a catalog role fetches its canonical text. The role is replaced even if the fetch fails.
// The "All Roles" filter value and roles missing from a loaded catalog are declined and
// leave the current role in place.
func (e *Engine) SelectJDRole(ctx context.Context, role string) error {
	if role == analysis.AllRoles {
		return e.decline(&PreconditionError{
			Op:      "selectJDRole",
			Message: fmt.Sprintf("%q filters saved resumes; choose a job description role.", role),
		})
	}
	if role != analysis.CustomRole && e.catalog.Loaded() && !e.catalog.HasRole(role) {
		return e.decline(&PreconditionError{
			Op:      "selectJDRole",
			Message: fmt.Sprintf("Unknown job description role %q.", role),
		})
	}

	e.doc.JDRole = role
	if role == analysis.CustomRole {
		e.doc.JDText = ""
		return nil
	}

	out := gateway.Run(ctx, e.gw, "fetch JD text", func(ctx context.Context) (string, error) {
		return e.svc.JDText(ctx, role)
	})
	if !out.OK {
		return out.Err
	}
	e.doc.JDText = out.Value
	e.log.Info("job description selected", zap.String("role", role))
	return nil
}

// SetJDText edits the job description. Only the custom role is editable.
func (e *Engine) SetJDText(text string) error {
	if e.doc.JDRole != analysis.CustomRole {
		return e.decline(&PreconditionError{
			Op:      "setJDText",
			Message: fmt.Sprintf("Select %q to edit the job description.", analysis.CustomRole),
		})
	}
	e.doc.JDText = text
	return nil
}

// ShowView moves focus to another output.
func (e *Engine) ShowView(v View) {
	e.doc.ActiveView = v
}

// Confirm persists the document, refreshes the saved list and starts over with an empty document.
// The job description selection is kept.
func (e *Engine) Confirm(ctx context.Context) (*analysis.ConfirmReceipt, error) {
	c, err := e.doc.Confirmable()
	if err != nil {
		return nil, e.decline(err)
	}

	req := c.Request(e.now())
	out := gateway.Run(ctx, e.gw, GateRegistry[OpConfirm].Label, func(ctx context.Context) (*analysis.ConfirmReceipt, error) {
		return e.svc.Confirm(ctx, req)
	})
	if !out.OK {
		return nil, out.Err
	}

	e.doc.Stage = StageConfirmed
	e.log.Info("document confirmed", zap.String("record_id", out.Value.ID), zap.String("name", req.PersonName))

	if e.saved != nil {
		if err := e.saved.Refresh(ctx); err != nil {
			e.log.Warn("saved list refresh after confirm failed", zap.Error(err))
		}
	}
	e.reset()
	e.doc.ActiveView = ViewSaved
	return out.Value, nil
}

// ClearOutputs discards the current document except the job description selection.
func (e *Engine) ClearOutputs() {
	e.reset()
	e.gw.ClearError()
	e.log.Info("outputs cleared")
}

// ClearEverything deletes all saved data after the user approves it.
// It reports whether the deletion happened.
func (e *Engine) ClearEverything(ctx context.Context, confirmer Confirmer) (bool, error) {
	if confirmer == nil {
		return false, ErrNoConfirmer
	}
	ok, err := confirmer.ConfirmAction(ClearEverythingPrompt)
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		return false, nil
	}

	out := gateway.Do(ctx, e.gw, "clear all data", e.svc.ClearAll)
	if !out.OK {
		return false, out.Err
	}

	e.ClearOutputs()
	if e.saved != nil {
		if err := e.saved.SetFilter(ctx, analysis.AllRoles); err != nil {
			e.log.Warn("saved list refresh after clear failed", zap.Error(err))
		}
	}
	return true, nil
}

func (e *Engine) reset() {
	e.doc = Document{
		Stage:      StageEmpty,
		JDRole:     e.doc.JDRole,
		JDText:     e.doc.JDText,
		ActiveView: ViewParse,
	}
}

func (e *Engine) require(op Op) error {
	if err := e.doc.Check(op); err != nil {
		return e.decline(err)
	}
	return nil
}

// decline surfaces a precondition failure without touching busy.
func (e *Engine) decline(err error) error {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		e.gw.SetError(pe.Message)
		e.log.Debug("operation declined", zap.String("op", string(pe.Op)), zap.Error(err))
		return err
	}
	e.gw.SetError(err.Error())
	return err
}
