// Package feedback renders the Markdown comments CLOWarden posts back to
// pull requests: validation results and reconciliation summaries.
package feedback

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/clowarden/clowarden/pkg/markdown"
	"github.com/clowarden/clowarden/pkg/service"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

// Renderer turns a validation or reconciliation result into the Markdown
// body of a pull-request comment.
type Renderer interface {
	// RenderValidationFailed renders the "validation failed" report for
	// an aggregate configuration error.
	RenderValidationFailed(err error) string

	// RenderValidationSucceeded renders the "validation succeeded"
	// report for a valid configuration change, listing the changes it
	// would apply.
	RenderValidationSucceeded(summary *service.ChangesSummary) string

	// RenderReconciliationCompleted renders the "reconciliation
	// completed" report: the changes a reconcile pass applied, and
	// whatever error the pass itself hit (distinct from a per-change
	// error, which is carried on each AppliedChange).
	RenderReconciliationCompleted(applied *service.ChangesApplied, runErr error) string
}

// templateRenderer implements Renderer with text/template, the same
// stdlib boundary every pack repo with comment/report rendering reaches
// for in place of a third-party templating engine.
type templateRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded report templates.
func NewRenderer() (Renderer, error) {
	tmpl, err := template.New("feedback").Funcs(template.FuncMap{
		"formatError": formatError,
		"escape":      markdown.EscapeFence,
	}).ParseFS(templateFS, "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing feedback templates: %w", err)
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

type validationFailedView struct {
	Error string
}

func (r *templateRenderer) RenderValidationFailed(err error) string {
	return r.render("validation_failed.md.tmpl", validationFailedView{Error: formatError(err)})
}

type validationSucceededView struct {
	ChangesFound              bool
	InvalidBaseRefConfigFound bool
	DirectoryChanges          []string
	RepositoryChanges         []string
}

func (r *templateRenderer) RenderValidationSucceeded(summary *service.ChangesSummary) string {
	view := validationSucceededView{
		InvalidBaseRefConfigFound: summary.BaseRefConfigStatus == service.BaseRefConfigInvalid,
	}
	for _, c := range summary.Changes.Directory {
		view.DirectoryChanges = append(view.DirectoryChanges, markdown.DropCodeBlock(c.Describe()))
	}
	for _, c := range summary.Changes.Repositories {
		view.RepositoryChanges = append(view.RepositoryChanges, markdown.DropCodeBlock(c.Describe()))
	}
	view.ChangesFound = len(view.DirectoryChanges) > 0 || len(view.RepositoryChanges) > 0
	return r.render("validation_succeeded.md.tmpl", view)
}

type appliedChangeView struct {
	Description string
	Error       string
}

type reconciliationCompletedView struct {
	RunError           string
	SomeChangesApplied bool
	ErrorsFound        bool
	DirectoryChanges   []appliedChangeView
	RepositoryChanges  []appliedChangeView
}

func (r *templateRenderer) RenderReconciliationCompleted(applied *service.ChangesApplied, runErr error) string {
	view := reconciliationCompletedView{}
	if runErr != nil {
		view.RunError = formatError(runErr)
		view.ErrorsFound = true
	}
	if applied != nil {
		for _, c := range applied.Directory {
			view.DirectoryChanges = append(view.DirectoryChanges, appliedChangeView{Description: markdown.DropCodeBlock(c.Description), Error: c.Error})
			if c.Error != "" {
				view.ErrorsFound = true
			}
		}
		for _, c := range applied.Repositories {
			view.RepositoryChanges = append(view.RepositoryChanges, appliedChangeView{Description: markdown.DropCodeBlock(c.Description), Error: c.Error})
			if c.Error != "" {
				view.ErrorsFound = true
			}
		}
		view.SomeChangesApplied = len(view.DirectoryChanges) > 0 || len(view.RepositoryChanges) > 0
	}
	return r.render("reconciliation_completed.md.tmpl", view)
}

func (r *templateRenderer) render(name string, data any) string {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		// A template failure here means a programmer error (a bad
		// template or a view the template doesn't expect), not a
		// runtime condition callers can recover from.
		panic(fmt.Sprintf("feedback: rendering %s: %v", name, err))
	}
	return buf.String()
}
