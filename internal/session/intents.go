package session

import (
	"io"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/registry"
	"github.com/jonathan/resumeflow/internal/upload"
	"github.com/jonathan/resumeflow/internal/workflow"
)

// Intent is a user event queued for the session loop.
type Intent interface {
	Name() string
}

// Bootstrap loads the role catalog, the default job description and the saved list.
type Bootstrap struct{}

// SelectFile replaces the document's source file.
type SelectFile struct {
	File *upload.File
}

// Parse uploads the selected file.
type Parse struct{}

// RunAnalysis runs one analysis of the parsed document.
type RunAnalysis struct {
	Kind analysis.Kind
}

// SelectRole switches the job description role.
type SelectRole struct {
	Role string
}

// SetJDText edits the custom job description.
type SetJDText struct {
	Text string
}

// Confirm persists the document.
type Confirm struct{}

// ClearOutputs discards the current document.
type ClearOutputs struct{}

// ClearEverything deletes all saved data once Confirmer approves.
type ClearEverything struct {
	Confirmer workflow.Confirmer
}

// SetSort changes the saved list ordering.
type SetSort struct {
	Key analysis.SortKey
}

// SetFilter changes the saved list role filter.
type SetFilter struct {
	Role string
}

// SetCriteria replaces filter and ordering in one fetch.
type SetCriteria struct {
	Criteria registry.Criteria
}

// ToggleDetail opens or closes the detail of a saved record. RecordID may also be the
// 1-based row number of the list. An empty DetailSourceID is resolved from the record's QA file.
type ToggleDetail struct {
	RecordID       string
	DetailSourceID string
}

// Download writes a saved record's source file to Dest. RecordID may also be a row number.
type Download struct {
	RecordID string
	Dest     io.Writer
}

// ShowView moves focus to another output.
type ShowView struct {
	View workflow.View
}

// Inspect changes nothing; observers get a fresh snapshot.
type Inspect struct{}

func (Bootstrap) Name() string       { return "bootstrap" }
func (SelectFile) Name() string      { return "selectFile" }
func (Parse) Name() string           { return "parse" }
func (i RunAnalysis) Name() string   { return "analyze:" + string(i.Kind) }
func (SelectRole) Name() string      { return "selectJDRole" }
func (SetJDText) Name() string       { return "setJDText" }
func (Confirm) Name() string         { return "confirm" }
func (ClearOutputs) Name() string    { return "clearOutputs" }
func (ClearEverything) Name() string { return "clearEverything" }
func (SetSort) Name() string         { return "setSort" }
func (SetFilter) Name() string       { return "setFilter" }
func (SetCriteria) Name() string     { return "setCriteria" }
func (ToggleDetail) Name() string    { return "toggleDetail" }
func (Download) Name() string        { return "download" }
func (ShowView) Name() string        { return "showView" }
func (Inspect) Name() string         { return "inspect" }
