// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// maxSkipRows caps the skipped rows listed inline; the rest are in the CSV export.
const maxSkipRows = 20

// ErrorAlert renders a dismissible error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// SummaryParams feeds UploadSummary.
type SummaryParams struct {
	UploadID string
	FileName string
	Phase    string
	Error    string
	Outcome  catalog.Outcome
}

// UploadSummary renders the counts of a finished batch and its first skips.
func UploadSummary(p SummaryParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sw := &stickyWriter{w: w}

		sw.printf(`<div class="upload-summary" data-phase="%s">`, templ.EscapeString(p.Phase))
		sw.printf(`<h3>%s</h3>`, templ.EscapeString(p.FileName))
		if p.Error != "" {
			sw.printf(`<p class="upload-error">%s</p>`, templ.EscapeString(p.Error))
		}
		sw.printf(`<dl class="upload-counts"><dt>Inserted</dt><dd>%d</dd><dt>Updated</dt><dd>%d</dd><dt>Skipped</dt><dd>%d</dd></dl>`,
			p.Outcome.Inserted, p.Outcome.Updated, p.Outcome.Skipped)

		if len(p.Outcome.Skips) > 0 {
			sw.printf(`<table class="skipped-rows"><thead><tr><th>Line</th><th>Reason</th></tr></thead><tbody>`)
			for _, s := range p.Outcome.Skips[:min(len(p.Outcome.Skips), maxSkipRows)] {
				sw.printf(`<tr><td>%s</td><td>%s</td></tr>`, strconv.Itoa(s.Line), templ.EscapeString(s.Reason))
			}
			sw.printf(`</tbody></table>`)
			sw.printf(`<a class="download-skipped" href="%s">Download skipped rows</a>`,
				templ.EscapeString("/api/upload/"+p.UploadID+"/skipped"))
		}
		sw.printf(`</div>`)
		return sw.err
	})
}

// stickyWriter keeps the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}
