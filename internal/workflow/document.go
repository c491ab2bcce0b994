// Package workflow holds the stage-gated state of the resume currently being analyzed
// and the operations that advance it.
package workflow

import (
	"slices"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/upload"
)

// Stage is the lifecycle position of the current document.
type Stage string

// Stages. Confirmed is transient: a confirmed document is reset right after persistence.
const (
	StageEmpty     Stage = "empty"
	StageUploaded  Stage = "uploaded"
	StageParsed    Stage = "parsed"
	StageConfirmed Stage = "confirmed"
)

// Milestone is a post-parse analysis that has produced output.
// Milestones are independent of each other and of their order.
type Milestone string

// Milestones, one per analysis kind.
const (
	MilestoneTableReady Milestone = "tableReady"
	MilestoneChecked    Milestone = "checked"
	MilestoneJDMatched  Milestone = "jdMatched"
	MilestoneQAReady    Milestone = "qaReady"
	MilestoneScored     Milestone = "scored"
)

var milestoneForKind = map[analysis.Kind]Milestone{
	analysis.KindTable:    MilestoneTableReady,
	analysis.KindCheck:    MilestoneChecked,
	analysis.KindJDMatch:  MilestoneJDMatched,
	analysis.KindQA:       MilestoneQAReady,
	analysis.KindFitScore: MilestoneScored,
}

// View is the output currently in focus. It never gates an operation.
type View string

// Views.
const (
	ViewParse   View = "parse"
	ViewTable   View = "table"
	ViewCheck   View = "check"
	ViewJDMatch View = "jd-match"
	ViewQA      View = "interview-qa"
	ViewSaved   View = "all-resumes"
)

// Views lists every view in tab order.
func Views() []View {
	return []View{ViewParse, ViewTable, ViewCheck, ViewJDMatch, ViewQA, ViewSaved}
}

// ParseView accepts a view identifier.
func ParseView(s string) (View, bool) {
	for _, v := range Views() {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// the fit score has no view; it is shown next to its trigger
var viewForKind = map[analysis.Kind]View{
	analysis.KindTable:   ViewTable,
	analysis.KindCheck:   ViewCheck,
	analysis.KindJDMatch: ViewJDMatch,
	analysis.KindQA:      ViewQA,
}

// Outputs holds the free text of each analysis.
type Outputs struct {
	Table    string
	Check    string
	JDMatch  string
	QA       string
	FitScore string
}

// Get returns the output of kind.
func (o Outputs) Get(kind analysis.Kind) string {
	switch kind {
	case analysis.KindTable:
		return o.Table
	case analysis.KindCheck:
		return o.Check
	case analysis.KindJDMatch:
		return o.JDMatch
	case analysis.KindQA:
		return o.QA
	case analysis.KindFitScore:
		return o.FitScore
	}
	return ""
}

func (o *Outputs) set(kind analysis.Kind, text string) {
	switch kind {
	case analysis.KindTable:
		o.Table = text
	case analysis.KindCheck:
		o.Check = text
	case analysis.KindJDMatch:
		o.JDMatch = text
	case analysis.KindQA:
		o.QA = text
	case analysis.KindFitScore:
		o.FitScore = text
	}
}

// Document is the single resume under analysis.
type Document struct {
	Stage         Stage
	File          *upload.File
	CanonicalText string
	ExtractedName string
	StagingID     string
	ParseDisplay  string
	JDRole        string
	JDText        string
	Outputs       Outputs
	ActiveView    View
}

// Milestones returns the analyses that have output, in kind order.
func (d Document) Milestones() []Milestone {
	var ms []Milestone
	for _, kind := range analysis.Kinds() {
		if d.Outputs.Get(kind) != "" {
			ms = append(ms, milestoneForKind[kind])
		}
	}
	return ms
}

// Output returns the text shown in view v.
func (d Document) Output(v View) string {
	if v == ViewParse {
		return d.ParseDisplay
	}
	for kind, kv := range viewForKind {
		if kv == v {
			return d.Outputs.Get(kind)
		}
	}
	return ""
}

// Catalog is the list of job description roles offered by the collaborator.
type Catalog struct {
	Roles []string
}

// Loaded reports whether a catalog has been fetched.
func (c Catalog) Loaded() bool {
	return len(c.Roles) > 0
}

// JDChoices lists the selectable job description roles.
func (c Catalog) JDChoices() []string {
	return append(slices.Clone(c.Roles), analysis.CustomRole)
}

// FilterChoices lists the saved-list filter values.
func (c Catalog) FilterChoices() []string {
	return append([]string{analysis.AllRoles}, c.Roles...)
}

// HasRole reports whether role is a catalog role.
func (c Catalog) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}
