package main

import (
	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/observability"
	"github.com/jonathan/resumeflow/internal/session"
	"github.com/jonathan/resumeflow/internal/workflow"
)

// render prints what changed after an intent.
func render(p *observability.Printer, r session.Result) {
	snap := r.Snapshot
	doc := snap.Document

	switch in := r.Intent.(type) {
	case session.Bootstrap:
		p.PrintCatalog(snap.Catalog)
		p.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
	case session.Parse:
		p.PrintOutput(doc, workflow.ViewParse)
		p.PrintDocument(doc)
	case session.RunAnalysis:
		if r.Err == nil && in.Kind != analysis.KindFitScore {
			p.PrintOutput(doc, doc.ActiveView)
		} else {
			p.PrintDocument(doc)
		}
	case session.ShowView:
		if in.View == workflow.ViewSaved {
			p.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
		} else {
			p.PrintOutput(doc, in.View)
		}
	case session.Confirm:
		if r.Err == nil {
			p.PrintSuccess("Document confirmed and saved.")
			p.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
		}
		p.PrintDocument(doc)
	case session.ClearEverything:
		if r.Err == nil {
			p.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
		}
		p.PrintDocument(doc)
	case session.SetSort, session.SetFilter, session.SetCriteria, session.ToggleDetail:
		p.PrintSaved(snap.Records, snap.Criteria, snap.OpenID)
	case session.Download:
		if r.Err == nil {
			p.PrintSuccess("Download complete.")
		}
	case session.Inspect:
		p.PrintCatalog(snap.Catalog)
		p.PrintDocument(doc)
	default:
		p.PrintDocument(doc)
	}

	p.PrintGateway(snap.Gateway)
}
