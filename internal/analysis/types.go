// Package analysis is the client for the remote resume analysis service.
package analysis

import (
	"context"
	"io"
)

// Role catalog sentinels.
const (
	// AllRoles is the saved-list filter value that matches every role.
	AllRoles = "All Roles"
	// CustomRole is the job description role whose text is typed by the user.
	CustomRole = "Custom Input"
)

// Kind identifies one text analysis of a parsed resume.
type Kind string

// Analysis kinds.
const (
	KindTable    Kind = "table"
	KindCheck    Kind = "check"
	KindJDMatch  Kind = "jdMatch"
	KindQA       Kind = "qa"
	KindFitScore Kind = "fitScore"
)

// Kinds lists every analysis kind in display order.
func Kinds() []Kind {
	return []Kind{KindTable, KindCheck, KindJDMatch, KindQA, KindFitScore}
}

// NeedsJD reports whether the analysis compares the resume with a job description.
func (k Kind) NeedsJD() bool {
	return k == KindJDMatch || k == KindQA || k == KindFitScore
}

// SortKey is a saved-list ordering field, in its wire form.
type SortKey string

// Sort keys accepted by the listing endpoint.
const (
	SortByPersonName SortKey = "person_name"
	SortByFitScore   SortKey = "fit_score"
	SortByTimestamp  SortKey = "timestamp"
)

// ParseSortKey accepts both the wire form and the camelCase form.
func ParseSortKey(s string) (SortKey, bool) {
	switch s {
	case "person_name", "personName", "name":
		return SortByPersonName, true
	case "fit_score", "fitScore", "score":
		return SortByFitScore, true
	case "timestamp", "time":
		return SortByTimestamp, true
	}
	return "", false
}

// SortOrder is ascending or descending, in its wire form.
type SortOrder string

// Sort orders.
const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Toggle flips the order.
func (o SortOrder) Toggle() SortOrder {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

// ParseResult is the collaborator's reading of an uploaded resume.
type ParseResult struct {
	DisplayText      string `json:"display_output"`
	CanonicalText    string `json:"raw_parsed_text"`
	ExtractedName    string `json:"extracted_name"`
	StagingID        string `json:"temp_saved_filename"`
	OriginalFilename string `json:"original_filename,omitempty"`
}

// AnalysisRequest carries the texts an analysis runs over.
type AnalysisRequest struct {
	CanonicalText string
	JDText        string
}

// ConfirmRequest is the document snapshot persisted by the collaborator.
type ConfirmRequest struct {
	CanonicalText    string `json:"resume_text_cache"`
	JDText           string `json:"jd_text"`
	FitScore         string `json:"fit_score_output"`
	QA               string `json:"interview_qa_output"`
	JDRole           string `json:"selected_jd_role"`
	OriginalFilename string `json:"original_file_name"`
	StagingID        string `json:"temp_saved_filename"`
	PersonName       string `json:"parsed_resume_name"`
	Timestamp        string `json:"timestamp"`
}

// ConfirmReceipt acknowledges a persisted document.
type ConfirmReceipt struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SavedRecord is a server-persisted summary of a confirmed document.
// QADetail stays nil until the detail is fetched.
type SavedRecord struct {
	ID             string  `json:"id"`
	PersonName     string  `json:"person_name"`
	JDRole         string  `json:"jd_role"`
	FitScoreText   string  `json:"fit_score"`
	ResumeFilename string  `json:"resume_filename"`
	QAFilename     string  `json:"qa_filename"`
	Timestamp      string  `json:"timestamp"`
	QADetail       *string `json:"-"`
}

// ListQuery selects and orders saved records server-side.
type ListQuery struct {
	Filter    string
	SortKey   SortKey
	SortOrder SortOrder
}

// Service is every collaborator call the client makes.
type Service interface {
	Roles(ctx context.Context) ([]string, error)
	DefaultJD(ctx context.Context) (string, error)
	JDText(ctx context.Context, role string) (string, error)
	Parse(ctx context.Context, filename string, r io.Reader) (*ParseResult, error)
	Analyze(ctx context.Context, kind Kind, req AnalysisRequest) (string, error)
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmReceipt, error)
	ListSaved(ctx context.Context, q ListQuery) ([]SavedRecord, error)
	Detail(ctx context.Context, detailSourceID string) (string, error)
	Download(ctx context.Context, filename string, w io.Writer) (int64, error)
	ClearAll(ctx context.Context) error
}
