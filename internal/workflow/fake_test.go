package workflow

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/upload"
)

// fakeService records collaborator calls and returns canned results.
type fakeService struct {
	calls      map[string]int
	parse      *analysis.ParseResult
	parseErr   error
	outputs    map[analysis.Kind]string
	analyzeErr error
	jdTexts    map[string]string
	confirmErr error
	clearErr   error
	confirmed  []analysis.ConfirmRequest
	uploaded   string
}

func newFakeService() *fakeService {
	return &fakeService{
		calls: map[string]int{},
		parse: &analysis.ParseResult{
			DisplayText:   "## Jane Doe",
			CanonicalText: "X",
			ExtractedName: "Jane Doe",
			StagingID:     "123_cv.pdf",
		},
		outputs: map[analysis.Kind]string{
			analysis.KindTable:    "| Name | Jane |",
			analysis.KindCheck:    "Looks good",
			analysis.KindJDMatch:  "Strong match",
			analysis.KindQA:       "Q1: Tell me about Go.",
			analysis.KindFitScore: "Score: 8/10",
		},
		jdTexts: map[string]string{"Data Scientist": "Analyze data."},
	}
}

func (f *fakeService) total() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeService) Roles(context.Context) ([]string, error) {
	f.calls["roles"]++
	return []string{"Software Engineer", "Data Scientist"}, nil
}

func (f *fakeService) DefaultJD(context.Context) (string, error) {
	f.calls["defaultJD"]++
	return "Build services.", nil
}

func (f *fakeService) JDText(_ context.Context, role string) (string, error) {
	f.calls["jdText"]++
	text, ok := f.jdTexts[role]
	if !ok {
		return "", errors.New("no such role")
	}
	return text, nil
}

func (f *fakeService) Parse(_ context.Context, filename string, r io.Reader) (*analysis.ParseResult, error) {
	f.calls["parse"]++
	data, _ := io.ReadAll(r)
	f.uploaded = filename + ":" + string(data)
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.parse, nil
}

func (f *fakeService) Analyze(_ context.Context, kind analysis.Kind, req analysis.AnalysisRequest) (string, error) {
	f.calls[string(kind)]++
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.outputs[kind], nil
}

func (f *fakeService) Confirm(_ context.Context, req analysis.ConfirmRequest) (*analysis.ConfirmReceipt, error) {
	f.calls["confirm"]++
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	f.confirmed = append(f.confirmed, req)
	return &analysis.ConfirmReceipt{ID: "rec-1", Message: "Document confirmed and saved!"}, nil
}

func (f *fakeService) ListSaved(context.Context, analysis.ListQuery) ([]analysis.SavedRecord, error) {
	f.calls["list"]++
	return nil, nil
}

func (f *fakeService) Detail(context.Context, string) (string, error) {
	f.calls["detail"]++
	return "", nil
}

func (f *fakeService) Download(context.Context, string, io.Writer) (int64, error) {
	f.calls["download"]++
	return 0, nil
}

func (f *fakeService) ClearAll(context.Context) error {
	f.calls["clearAll"]++
	return f.clearErr
}

// fakeSaved records registry calls made by the engine.
type fakeSaved struct {
	refreshes int
	filters   []string
}

func (s *fakeSaved) Refresh(context.Context) error {
	s.refreshes++
	return nil
}

func (s *fakeSaved) SetFilter(_ context.Context, role string) error {
	s.filters = append(s.filters, role)
	s.refreshes++
	return nil
}

type answer bool

func (a answer) ConfirmAction(string) (bool, error) { return bool(a), nil }

func tempResume(t *testing.T) *upload.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 resume"), 0644))
	return &upload.File{Path: path, Name: "cv.pdf", Size: 15, Pages: 1}
}
