package workflow

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resumeflow/internal/analysis"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// confirmGate mirrors the confirm precondition; every field must be non-empty at once.
type confirmGate struct {
	CanonicalText string `validate:"required"`
	JDText        string `validate:"required"`
	FitScore      string `validate:"required"`
	QA            string `validate:"required"`
	ExtractedName string `validate:"required"`
	StagingID     string `validate:"required"`
}

var gateFields = map[string]Field{
	"CanonicalText": FieldCanonicalText,
	"JDText":        FieldJDText,
	"FitScore":      FieldFitScore,
	"QA":            FieldQA,
	"ExtractedName": FieldExtractedName,
	"StagingID":     FieldStagingID,
}

// Confirmable is a document snapshot that satisfies the confirm precondition.
// The only way to obtain one is Document.Confirmable.
type Confirmable struct {
	gate             confirmGate
	jdRole           string
	originalFilename string
}

// Confirmable returns the confirmable snapshot of d, or a PreconditionError naming
// every empty required field.
func (d Document) Confirmable() (Confirmable, error) {
	gate := confirmGate{
		CanonicalText: d.CanonicalText,
		JDText:        d.JDText,
		FitScore:      d.Outputs.FitScore,
		QA:            d.Outputs.QA,
		ExtractedName: d.ExtractedName,
		StagingID:     d.StagingID,
	}

	if err := validate.Struct(gate); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Confirmable{}, err
		}
		missing := make([]Field, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, gateFields[fe.StructField()])
		}
		return Confirmable{}, &PreconditionError{
			Op:      OpConfirm,
			Missing: missing,
			Message: GateRegistry[OpConfirm].Message,
		}
	}

	c := Confirmable{gate: gate, jdRole: d.JDRole}
	if d.File != nil {
		c.originalFilename = d.File.Name
	}
	return c, nil
}

// Request builds the persistence payload stamped with at.
func (c Confirmable) Request(at time.Time) analysis.ConfirmRequest {
	return analysis.ConfirmRequest{
		CanonicalText:    c.gate.CanonicalText,
		JDText:           c.gate.JDText,
		FitScore:         c.gate.FitScore,
		QA:               c.gate.QA,
		JDRole:           c.jdRole,
		OriginalFilename: c.originalFilename,
		StagingID:        c.gate.StagingID,
		PersonName:       c.gate.ExtractedName,
		Timestamp:        at.UTC().Format(time.RFC3339Nano),
	}
}
