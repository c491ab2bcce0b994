package workflow

import (
	"fmt"
	"strings"

	"github.com/jonathan/resumeflow/internal/analysis"
)

// Op names a document operation.
type Op string

// Document operations.
const (
	OpParse    Op = "parse"
	OpTable    Op = "generateTable"
	OpCheck    Op = "runCheck"
	OpJDMatch  Op = "matchJD"
	OpQA       Op = "generateQA"
	OpFitScore Op = "computeFitScore"
	OpConfirm  Op = "confirm"
)

var opForKind = map[analysis.Kind]Op{
	analysis.KindTable:    OpTable,
	analysis.KindCheck:    OpCheck,
	analysis.KindJDMatch:  OpJDMatch,
	analysis.KindQA:       OpQA,
	analysis.KindFitScore: OpFitScore,
}

// Field names a piece of document state an operation can depend on.
type Field string

// Gate fields.
const (
	FieldRawFile       Field = "rawFile"
	FieldCanonicalText Field = "canonicalText"
	FieldJDText        Field = "jdText"
	FieldFitScore      Field = "outputs.fitScore"
	FieldQA            Field = "outputs.qa"
	FieldExtractedName Field = "extractedName"
	FieldStagingID     Field = "stagingId"
)

// GateDefinition lists the fields an operation requires and the message shown when any is empty.
type GateDefinition struct {
	Op       Op
	Label    string
	Requires []Field
	Message  string
}

const (
	msgNeedsParse   = "Please parse a resume first."
	msgNeedsParseJD = "Please parse a resume and provide a job description."
)

// GateRegistry holds the precondition of every document operation.
var GateRegistry = map[Op]GateDefinition{
	OpParse: {
		Op:       OpParse,
		Label:    "parse resume",
		Requires: []Field{FieldRawFile},
		Message:  "Please upload a PDF resume.",
	},
	OpTable: {
		Op:       OpTable,
		Label:    "generate resume table",
		Requires: []Field{FieldCanonicalText},
		Message:  msgNeedsParse,
	},
	OpCheck: {
		Op:       OpCheck,
		Label:    "perform resume check",
		Requires: []Field{FieldCanonicalText},
		Message:  msgNeedsParse,
	},
	OpJDMatch: {
		Op:       OpJDMatch,
		Label:    "generate JD match",
		Requires: []Field{FieldCanonicalText, FieldJDText},
		Message:  msgNeedsParseJD,
	},
	OpQA: {
		Op:       OpQA,
		Label:    "generate questions",
		Requires: []Field{FieldCanonicalText, FieldJDText},
		Message:  msgNeedsParseJD,
	},
	OpFitScore: {
		Op:       OpFitScore,
		Label:    "calculate fit score",
		Requires: []Field{FieldCanonicalText, FieldJDText},
		Message:  msgNeedsParseJD,
	},
	OpConfirm: {
		Op:    OpConfirm,
		Label: "confirm document",
		Requires: []Field{
			FieldCanonicalText, FieldJDText, FieldFitScore,
			FieldQA, FieldExtractedName, FieldStagingID,
		},
		Message: "Please ensure a resume is parsed, fit score and interview Q&A are generated, and a name is extracted before confirming.",
	},
}

// Ops lists every gated operation in workflow order.
func Ops() []Op {
	return []Op{OpParse, OpTable, OpCheck, OpJDMatch, OpQA, OpFitScore, OpConfirm}
}

// PreconditionError is returned when an operation is declined without calling the collaborator.
type PreconditionError struct {
	Op      Op
	Missing []Field
	Message string
}

func (e *PreconditionError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	missing := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		missing[i] = string(f)
	}
	return fmt.Sprintf("%s: %s (missing %s)", e.Op, e.Message, strings.Join(missing, ", "))
}

// UserMessage returns the text shown in the error slot.
func (e *PreconditionError) UserMessage() (string, bool) {
	return e.Message, e.Message != ""
}

// has reports whether field is non-empty in d.
func (d Document) has(field Field) bool {
	switch field {
	case FieldRawFile:
		return d.File != nil
	case FieldCanonicalText:
		return d.CanonicalText != ""
	case FieldJDText:
		return d.JDText != ""
	case FieldFitScore:
		return d.Outputs.FitScore != ""
	case FieldQA:
		return d.Outputs.QA != ""
	case FieldExtractedName:
		return d.ExtractedName != ""
	case FieldStagingID:
		return d.StagingID != ""
	}
	return false
}

// Check returns a PreconditionError when op cannot run against d.
func (d Document) Check(op Op) error {
	if op == OpConfirm {
		_, err := d.Confirmable()
		return err
	}

	def, ok := GateRegistry[op]
	if !ok {
		return fmt.Errorf("unknown operation: %s", op)
	}

	var missing []Field
	for _, f := range def.Requires {
		if !d.has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &PreconditionError{Op: op, Missing: missing, Message: def.Message}
	}
	return nil
}

// Available returns the operations whose preconditions d satisfies.
func (d Document) Available() []Op {
	var ops []Op
	for _, op := range Ops() {
		if d.Check(op) == nil {
			ops = append(ops, op)
		}
	}
	return ops
}
