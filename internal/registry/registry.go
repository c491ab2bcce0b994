// Package registry keeps the list of confirmed documents as last returned by the collaborator,
// together with the criteria it was fetched with and the one record whose detail is open.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/gateway"
)

// ErrUnknownRecord is returned for a record id that is not in the current list.
var ErrUnknownRecord = errors.New("record not in saved list")

// ErrNoDetail is returned when a record has no interview Q&A to show.
var ErrNoDetail = errors.New("record has no interview Q&A")

// Criteria selects and orders the saved list on the server.
type Criteria struct {
	Filter    string
	SortKey   analysis.SortKey
	SortOrder analysis.SortOrder
}

// DefaultCriteria lists every role, newest first.
func DefaultCriteria() Criteria {
	return Criteria{
		Filter:    analysis.AllRoles,
		SortKey:   analysis.SortByTimestamp,
		SortOrder: analysis.Descending,
	}
}

func (c Criteria) query() analysis.ListQuery {
	return analysis.ListQuery{Filter: c.Filter, SortKey: c.SortKey, SortOrder: c.SortOrder}
}

// Registry owns the saved list. It is not safe for concurrent use.
type Registry struct {
	svc      analysis.Service
	gw       *gateway.Gateway
	log      *zap.Logger
	records  []analysis.SavedRecord
	criteria Criteria
	openID   string
}

// New creates an empty registry with the default criteria.
func New(svc analysis.Service, gw *gateway.Gateway, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		svc:      svc,
		gw:       gw,
		log:      log.Named("registry"),
		criteria: DefaultCriteria(),
	}
}

// Records returns a copy of the current list in server order.
func (r *Registry) Records() []analysis.SavedRecord {
	return slices.Clone(r.records)
}

// Criteria returns the criteria of the current list.
func (r *Registry) Criteria() Criteria {
	return r.criteria
}

// OpenID returns the id of the record whose detail is shown.
func (r *Registry) OpenID() (string, bool) {
	return r.openID, r.openID != ""
}

// Record looks up a record of the current list.
func (r *Registry) Record(id string) (analysis.SavedRecord, bool) {
	i := r.index(id)
	if i < 0 {
		return analysis.SavedRecord{}, false
	}
	return r.records[i], true
}

// Load fetches the list with the current criteria without going through the gateway.
// It is meant for callers that already hold a gated call open, such as startup.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.svc.ListSaved(ctx, r.criteria.query())
	if err != nil {
		return err
	}
	r.replace(records, r.criteria)
	return nil
}

// Refresh refetches the list with the current criteria.
func (r *Registry) Refresh(ctx context.Context) error {
	return r.fetch(ctx, r.criteria)
}

// SetSort toggles the order when key is the current key; otherwise it sorts ascending by key.
func (r *Registry) SetSort(ctx context.Context, key analysis.SortKey) error {
	next := r.criteria
	if key == next.SortKey {
		next.SortOrder = next.SortOrder.Toggle()
	} else {
		next.SortKey = key
		next.SortOrder = analysis.Ascending
	}
	return r.fetch(ctx, next)
}

// SetFilter replaces the role filter and refetches.
func (r *Registry) SetFilter(ctx context.Context, role string) error {
	next := r.criteria
	next.Filter = role
	return r.fetch(ctx, next)
}

// Query refetches the list with explicit criteria.
func (r *Registry) Query(ctx context.Context, c Criteria) error {
	return r.fetch(ctx, c)
}

// fetch applies c only when the listing succeeds.
func (r *Registry) fetch(ctx context.Context, c Criteria) error {
	out := gateway.Run(ctx, r.gw, "fetch saved resumes", func(ctx context.Context) ([]analysis.SavedRecord, error) {
		return r.svc.ListSaved(ctx, c.query())
	})
	if !out.OK {
		return out.Err
	}
	r.replace(out.Value, c)
	return nil
}

// replace swaps in a fresh list. Detail text is not part of a listing, so the open marker is dropped.
func (r *Registry) replace(records []analysis.SavedRecord, c Criteria) {
	r.records = records
	r.criteria = c
	r.openID = ""
	r.log.Info("saved list replaced",
		zap.Int("count", len(records)),
		zap.String("filter", c.Filter),
		zap.String("sort_key", string(c.SortKey)),
		zap.String("sort_order", string(c.SortOrder)),
	)
}

// ToggleDetail hides the detail of recordID when it is open. Otherwise it fetches the detail
// keyed by detailSourceID, attaches it to the record and shows it in place of any other.
// A record without a detail source is declined without a request.
func (r *Registry) ToggleDetail(ctx context.Context, recordID, detailSourceID string) error {
	if r.openID == recordID && recordID != "" {
		r.openID = ""
		return nil
	}
	if r.index(recordID) < 0 {
		r.gw.SetError(fmt.Sprintf("Saved resume %q is not in the list.", recordID))
		return fmt.Errorf("%w: %s", ErrUnknownRecord, recordID)
	}
	if detailSourceID == "" {
		r.gw.SetError("No interview Q&A is stored for this record.")
		return fmt.Errorf("%w: %s", ErrNoDetail, recordID)
	}

	out := gateway.Run(ctx, r.gw, "fetch interview Q&A", func(ctx context.Context) (string, error) {
		return r.svc.Detail(ctx, detailSourceID)
	})
	if !out.OK {
		return out.Err
	}

	if i := r.index(recordID); i >= 0 {
		text := out.Value
		r.records[i].QADetail = &text
		r.openID = recordID
		r.log.Info("detail opened", zap.String("record_id", recordID))
	}
	return nil
}

// Download streams the source file of recordID into w.
func (r *Registry) Download(ctx context.Context, recordID string, w io.Writer) (int64, error) {
	rec, ok := r.Record(recordID)
	if !ok {
		r.gw.SetError(fmt.Sprintf("Saved resume %q is not in the list.", recordID))
		return 0, fmt.Errorf("%w: %s", ErrUnknownRecord, recordID)
	}
	if rec.ResumeFilename == "" {
		r.gw.SetError("No resume file is stored for this record.")
		return 0, fmt.Errorf("record %s has no resume file", recordID)
	}

	out := gateway.Run(ctx, r.gw, "download resume", func(ctx context.Context) (int64, error) {
		return r.svc.Download(ctx, rec.ResumeFilename, w)
	})
	if !out.OK {
		return 0, out.Err
	}
	r.log.Info("resume downloaded", zap.String("record_id", recordID), zap.Int64("bytes", out.Value))
	return out.Value, nil
}

// Resolve maps ref to a record id. An exact id wins; otherwise ref is read as the
// 1-based row number of the current list.
func (r *Registry) Resolve(ref string) (string, bool) {
	if r.index(ref) >= 0 {
		return ref, true
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(r.records) {
		return "", false
	}
	return r.records[n-1].ID, true
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.records, func(rec analysis.SavedRecord) bool {
		return rec.ID == id
	})
}
