package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/gateway"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *fakeService, *fakeSaved, *gateway.Gateway) {
	t.Helper()
	svc := newFakeService()
	saved := &fakeSaved{}
	gw := gateway.New(zaptest.NewLogger(t))
	e := NewEngine(svc, gw, saved, zaptest.NewLogger(t), Options{Now: func() time.Time { return fixedNow }})
	e.LoadCatalog([]string{"Software Engineer", "Data Scientist"}, "Build services.")
	return e, svc, saved, gw
}

func parsedEngine(t *testing.T) (*Engine, *fakeService, *fakeSaved, *gateway.Gateway) {
	t.Helper()
	e, svc, saved, gw := newTestEngine(t)
	e.SelectFile(tempResume(t))
	require.NoError(t, e.Parse(context.Background()))
	return e, svc, saved, gw
}

func TestNewEngine_Defaults(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	doc := e.Document()
	assert.Equal(t, StageEmpty, doc.Stage)
	assert.Equal(t, DefaultRole, doc.JDRole)
	assert.Equal(t, "Build services.", doc.JDText)
	assert.Equal(t, ViewParse, doc.ActiveView)
}

func TestParse_RequiresFile(t *testing.T) {
	e, svc, _, gw := newTestEngine(t)

	err := e.Parse(context.Background())

	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []Field{FieldRawFile}, pe.Missing)
	assert.Zero(t, svc.total())
	st := gw.State()
	assert.False(t, st.Busy)
	assert.Equal(t, "Please upload a PDF resume.", st.Error)
}

func TestParse_Success(t *testing.T) {
	e, svc, _, gw := parsedEngine(t)
	doc := e.Document()

	assert.Equal(t, StageParsed, doc.Stage)
	assert.Equal(t, "X", doc.CanonicalText)
	assert.Equal(t, "Jane Doe", doc.ExtractedName)
	assert.Equal(t, "123_cv.pdf", doc.StagingID)
	assert.Equal(t, "## Jane Doe", doc.ParseDisplay)
	assert.Equal(t, ViewParse, doc.ActiveView)
	assert.Equal(t, "cv.pdf:%PDF-1.4 resume", svc.uploaded)
	assert.False(t, gw.Busy())
}

func TestParse_FailureShowsErrorInPlace(t *testing.T) {
	e, svc, _, gw := newTestEngine(t)
	svc.parseErr = &analysis.RejectionError{Endpoint: "parse_resume", Status: 500, Message: "Error processing resume: bad xref"}
	e.SelectFile(tempResume(t))

	err := e.Parse(context.Background())
	require.Error(t, err)

	var failed *gateway.RequestFailed
	require.ErrorAs(t, err, &failed)
	doc := e.Document()
	assert.Equal(t, StageUploaded, doc.Stage)
	assert.Empty(t, doc.CanonicalText)
	assert.Equal(t, "```plain\nError: Error processing resume: bad xref\n```", doc.ParseDisplay)
	msg, _ := gw.LastError()
	assert.Equal(t, "Error processing resume: bad xref", msg)
}

func TestPostParseOps_RejectedWithoutCanonicalText(t *testing.T) {
	kinds := analysis.Kinds()

	for _, withFile := range []bool{false, true} {
		for _, kind := range kinds {
			e, svc, _, gw := newTestEngine(t)
			if withFile {
				e.SelectFile(tempResume(t))
			}

			err := e.Analyze(context.Background(), kind)

			var pe *PreconditionError
			require.ErrorAs(t, err, &pe, "kind %s", kind)
			assert.Contains(t, pe.Missing, FieldCanonicalText)
			assert.Zero(t, svc.total(), "kind %s must not reach the collaborator", kind)
			assert.False(t, gw.Busy())
			assert.Equal(t, Outputs{}, e.Document().Outputs)
		}
	}
}

func TestJDOps_RejectedWithoutJDText(t *testing.T) {
	for _, kind := range []analysis.Kind{analysis.KindJDMatch, analysis.KindQA, analysis.KindFitScore} {
		e, svc, _, gw := parsedEngine(t)
		require.NoError(t, e.SelectJDRole(context.Background(), analysis.CustomRole))
		before := svc.total()

		err := e.Analyze(context.Background(), kind)

		var pe *PreconditionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, []Field{FieldJDText}, pe.Missing)
		assert.Equal(t, before, svc.total())
		msg, _ := gw.LastError()
		assert.Equal(t, "Please parse a resume and provide a job description.", msg)
	}
}

func TestAnalyses_StoreOutputAndView(t *testing.T) {
	tests := []struct {
		kind analysis.Kind
		run  func(*Engine, context.Context) error
		view View
	}{
		{analysis.KindTable, (*Engine).GenerateTable, ViewTable},
		{analysis.KindCheck, (*Engine).RunCheck, ViewCheck},
		{analysis.KindJDMatch, (*Engine).MatchJD, ViewJDMatch},
		{analysis.KindQA, (*Engine).GenerateQA, ViewQA},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e, svc, _, _ := parsedEngine(t)
			require.NoError(t, tt.run(e, context.Background()))
			doc := e.Document()
			assert.Equal(t, svc.outputs[tt.kind], doc.Outputs.Get(tt.kind))
			assert.Equal(t, tt.view, doc.ActiveView)
			assert.Equal(t, svc.outputs[tt.kind], doc.Output(tt.view))
		})
	}
}

func TestComputeFitScore_KeepsView(t *testing.T) {
	e, _, _, _ := parsedEngine(t)
	require.NoError(t, e.GenerateTable(context.Background()))

	require.NoError(t, e.ComputeFitScore(context.Background()))

	doc := e.Document()
	assert.Equal(t, "Score: 8/10", doc.Outputs.FitScore)
	assert.Equal(t, ViewTable, doc.ActiveView)
	assert.Equal(t, []Milestone{MilestoneTableReady, MilestoneScored}, doc.Milestones())
}

func TestAnalysisFailure_LeavesDocumentUnchanged(t *testing.T) {
	e, svc, _, gw := parsedEngine(t)
	require.NoError(t, e.RunCheck(context.Background()))
	before := e.Document()

	svc.analyzeErr = errors.New("connection reset")
	err := e.RunCheck(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, e.Document())
	msg, _ := gw.LastError()
	assert.Equal(t, "perform resume check failed: connection reset", msg)
	assert.False(t, gw.Busy())
}

func TestSelectFile_ClearsDerivedState(t *testing.T) {
	e, _, _, gw := parsedEngine(t)
	for _, kind := range analysis.Kinds() {
		require.NoError(t, e.Analyze(context.Background(), kind))
	}
	gw.SetError("stale")

	for i := 0; i < 2; i++ {
		e.SelectFile(tempResume(t))
		doc := e.Document()
		assert.Equal(t, StageUploaded, doc.Stage)
		assert.NotNil(t, doc.File)
		assert.Equal(t, Outputs{}, doc.Outputs)
		assert.Empty(t, doc.CanonicalText)
		assert.Empty(t, doc.ExtractedName)
		assert.Empty(t, doc.StagingID)
		assert.Empty(t, doc.ParseDisplay)
		assert.Equal(t, "Build services.", doc.JDText)
	}
	_, hasErr := gw.LastError()
	assert.False(t, hasErr)
}

func TestSelectFile_Nil(t *testing.T) {
	e, _, _, _ := parsedEngine(t)
	e.SelectFile(nil)
	assert.Equal(t, StageEmpty, e.Document().Stage)
	assert.Nil(t, e.Document().File)
}

func TestSelectJDRole(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)

	require.NoError(t, e.SelectJDRole(context.Background(), "Data Scientist"))
	assert.Equal(t, "Data Scientist", e.Document().JDRole)
	assert.Equal(t, "Analyze data.", e.Document().JDText)
	assert.Equal(t, 1, svc.calls["jdText"])

	require.NoError(t, e.SelectJDRole(context.Background(), analysis.CustomRole))
	assert.Equal(t, analysis.CustomRole, e.Document().JDRole)
	assert.Empty(t, e.Document().JDText)
	assert.Equal(t, 1, svc.calls["jdText"], "custom role never fetches")
}

func TestSelectJDRole_FetchFailureStillReplacesRole(t *testing.T) {
	e, svc, _, gw := newTestEngine(t)
	svc.jdTexts = map[string]string{}

	err := e.SelectJDRole(context.Background(), "Data Scientist")
	require.Error(t, err)

	assert.Equal(t, "Data Scientist", e.Document().JDRole)
	assert.Equal(t, "Build services.", e.Document().JDText)
	_, hasErr := gw.LastError()
	assert.True(t, hasErr)
}

func TestSelectJDRole_Rejections(t *testing.T) {
	e, svc, _, _ := newTestEngine(t)

	var pe *PreconditionError
	require.ErrorAs(t, e.SelectJDRole(context.Background(), analysis.AllRoles), &pe)
	require.ErrorAs(t, e.SelectJDRole(context.Background(), "Astronaut"), &pe)
	assert.Equal(t, DefaultRole, e.Document().JDRole)
	assert.Zero(t, svc.total())
}

func TestSetJDText_OnlyForCustomRole(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	var pe *PreconditionError
	require.ErrorAs(t, e.SetJDText("mine"), &pe)
	assert.Equal(t, "Build services.", e.Document().JDText)

	require.NoError(t, e.SelectJDRole(context.Background(), analysis.CustomRole))
	require.NoError(t, e.SetJDText("mine"))
	assert.Equal(t, "mine", e.Document().JDText)
}

func confirmReadyEngine(t *testing.T) (*Engine, *fakeService, *fakeSaved, *gateway.Gateway) {
	t.Helper()
	e, svc, saved, gw := parsedEngine(t)
	require.NoError(t, e.ComputeFitScore(context.Background()))
	require.NoError(t, e.GenerateQA(context.Background()))
	return e, svc, saved, gw
}

func TestConfirm_RejectsEachMissingField(t *testing.T) {
	blank := map[Field]func(*Document){
		FieldCanonicalText: func(d *Document) { d.CanonicalText = "" },
		FieldJDText:        func(d *Document) { d.JDText = "" },
		FieldFitScore:      func(d *Document) { d.Outputs.FitScore = "" },
		FieldQA:            func(d *Document) { d.Outputs.QA = "" },
		FieldExtractedName: func(d *Document) { d.ExtractedName = "" },
		FieldStagingID:     func(d *Document) { d.StagingID = "" },
	}

	for field, blankFn := range blank {
		t.Run(string(field), func(t *testing.T) {
			e, svc, saved, gw := confirmReadyEngine(t)
			blankFn(&e.doc)
			before := svc.calls["confirm"]

			_, err := e.Confirm(context.Background())

			var pe *PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, []Field{field}, pe.Missing)
			assert.Equal(t, before, svc.calls["confirm"])
			assert.Zero(t, saved.refreshes)
			assert.False(t, gw.Busy())
			assert.Equal(t, StageParsed, e.Document().Stage)
		})
	}
}

func TestConfirm_ReportsAllMissingFields(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, err := e.Confirm(context.Background())

	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.ElementsMatch(t, []Field{FieldCanonicalText, FieldFitScore, FieldQA, FieldExtractedName, FieldStagingID}, pe.Missing)
}

func TestConfirm_Success(t *testing.T) {
	e, svc, saved, _ := confirmReadyEngine(t)

	receipt, err := e.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", receipt.ID)

	require.Len(t, svc.confirmed, 1)
	req := svc.confirmed[0]
	assert.Equal(t, "X", req.CanonicalText)
	assert.Equal(t, "Build services.", req.JDText)
	assert.Equal(t, "Score: 8/10", req.FitScore)
	assert.Equal(t, "Q1: Tell me about Go.", req.QA)
	assert.Equal(t, DefaultRole, req.JDRole)
	assert.Equal(t, "cv.pdf", req.OriginalFilename)
	assert.Equal(t, "123_cv.pdf", req.StagingID)
	assert.Equal(t, "Jane Doe", req.PersonName)
	assert.Equal(t, "2024-05-01T10:00:00Z", req.Timestamp)

	assert.Equal(t, 1, saved.refreshes)
	doc := e.Document()
	assert.Equal(t, StageEmpty, doc.Stage)
	assert.Nil(t, doc.File)
	assert.Equal(t, Outputs{}, doc.Outputs)
	assert.Empty(t, doc.CanonicalText)
	assert.Equal(t, DefaultRole, doc.JDRole)
	assert.Equal(t, "Build services.", doc.JDText)
	assert.Equal(t, ViewSaved, doc.ActiveView)
}

func TestConfirm_FailureKeepsDocument(t *testing.T) {
	e, svc, saved, gw := confirmReadyEngine(t)
	svc.confirmErr = &analysis.RejectionError{Endpoint: "confirm_document", Status: 500, Message: "Temporary resume file not found on server. Please re-upload and try again."}
	before := e.Document()

	_, err := e.Confirm(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, e.Document())
	assert.Zero(t, saved.refreshes)
	msg, _ := gw.LastError()
	assert.Equal(t, "Temporary resume file not found on server. Please re-upload and try again.", msg)
}

func TestClearOutputs(t *testing.T) {
	e, _, saved, gw := confirmReadyEngine(t)
	require.NoError(t, e.SelectJDRole(context.Background(), "Data Scientist"))
	gw.SetError("boom")

	e.ClearOutputs()

	doc := e.Document()
	assert.Equal(t, StageEmpty, doc.Stage)
	assert.Nil(t, doc.File)
	assert.Equal(t, Outputs{}, doc.Outputs)
	assert.Equal(t, "Data Scientist", doc.JDRole)
	assert.Equal(t, "Analyze data.", doc.JDText)
	assert.Zero(t, saved.refreshes)
	_, hasErr := gw.LastError()
	assert.False(t, hasErr)
}

func TestClearEverything_Declined(t *testing.T) {
	e, svc, saved, _ := confirmReadyEngine(t)
	before := e.Document()

	done, err := e.ClearEverything(context.Background(), answer(false))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, svc.calls["clearAll"])
	assert.Equal(t, before, e.Document())
	assert.Zero(t, saved.refreshes)
}

func TestClearEverything_Success(t *testing.T) {
	e, svc, saved, _ := confirmReadyEngine(t)

	done, err := e.ClearEverything(context.Background(), answer(true))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, svc.calls["clearAll"])
	assert.Equal(t, StageEmpty, e.Document().Stage)
	assert.Equal(t, []string{analysis.AllRoles}, saved.filters)
	assert.Equal(t, 1, saved.refreshes)
}

func TestClearEverything_Failure(t *testing.T) {
	e, svc, saved, gw := confirmReadyEngine(t)
	svc.clearErr = &analysis.RejectionError{Endpoint: "clear_all_data", Status: 500, Message: "Failed to clear all data: disk"}
	before := e.Document()

	done, err := e.ClearEverything(context.Background(), answer(true))
	require.Error(t, err)
	assert.False(t, done)
	assert.Equal(t, before, e.Document())
	assert.Zero(t, saved.refreshes)
	msg, _ := gw.LastError()
	assert.Equal(t, "Failed to clear all data: disk", msg)
}

func TestClearEverything_NilConfirmer(t *testing.T) {
	e, svc, saved, _ := confirmReadyEngine(t)
	before := e.Document()

	var done bool
	var err error
	require.NotPanics(t, func() {
		done, err = e.ClearEverything(context.Background(), nil)
	})
	require.ErrorIs(t, err, ErrNoConfirmer)
	assert.False(t, done)
	assert.Zero(t, svc.calls["clearAll"])
	assert.Equal(t, before, e.Document())
	assert.Zero(t, saved.refreshes)
}

func TestScenario_ParseCustomJDScoreQAConfirm(t *testing.T) {
	e, svc, saved, _ := newTestEngine(t)
	ctx := context.Background()

	e.SelectFile(tempResume(t))
	require.NoError(t, e.Parse(ctx))
	assert.Equal(t, "X", e.Document().CanonicalText)
	assert.Equal(t, "Jane Doe", e.Document().ExtractedName)

	require.NoError(t, e.SelectJDRole(ctx, analysis.CustomRole))
	assert.Empty(t, e.Document().JDText)

	var pe *PreconditionError
	require.ErrorAs(t, e.ComputeFitScore(ctx), &pe)
	assert.Zero(t, svc.calls[string(analysis.KindFitScore)])

	require.NoError(t, e.SetJDText("Y"))
	require.NoError(t, e.ComputeFitScore(ctx))
	assert.NotEmpty(t, e.Document().Outputs.FitScore)

	require.NoError(t, e.GenerateQA(ctx))

	_, err := e.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.refreshes)

	doc := e.Document()
	assert.Equal(t, StageEmpty, doc.Stage)
	assert.Nil(t, doc.File)
	assert.Empty(t, doc.CanonicalText)
	assert.Equal(t, analysis.CustomRole, doc.JDRole)
	assert.Equal(t, "Y", doc.JDText)
}
