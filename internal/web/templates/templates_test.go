package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

func TestErrorAlertEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("<b>bad</b>", "Try again", "FILE005").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>") {
		t.Errorf("message was not escaped: %s", out)
	}
	for _, want := range []string{"&lt;b&gt;bad&lt;/b&gt;", "Try again", "Code: FILE005"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestUploadSummary(t *testing.T) {
	var buf bytes.Buffer
	err := UploadSummary(SummaryParams{
		UploadID: "u-1",
		FileName: "deals.csv",
		Phase:    "complete",
		Outcome: catalog.Outcome{
			Inserted: 3,
			Updated:  1,
			Skipped:  1,
			Skips:    []catalog.Skip{{Line: 4, Reason: catalog.ReasonNoMatchableKey}},
		},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"deals.csv",
		"<dt>Inserted</dt><dd>3</dd>",
		"<td>4</td><td>no matchable key</td>",
		"/api/upload/u-1/skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
