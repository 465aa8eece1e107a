package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ilkka/allycal/internal/contract"
)

func TestSchemaVersionDefault(t *testing.T) {
	p := Printer{}
	if p.schemaVersion() != contract.SchemaVersion {
		t.Fatalf("expected default schema version %q", contract.SchemaVersion)
	}
}

func TestFlattenWithFields(t *testing.T) {
	occ := contract.Occurrence{
		SourceEventID:    "ev1",
		EffectiveDateKey: "2026-02-02",
		Title:            "War council",
		StartTime:        "20:00",
	}
	got := flatten(occ, []string{"title", "start_time", "effective_date_key"})
	if got != "War council\t20:00\t2026-02-02" {
		t.Fatalf("unexpected flatten result: %q", got)
	}
}

func TestSuccessJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{Mode: ModeJSON, Command: "month", Out: &buf}
	if err := p.Success([]string{"a"}, map[string]any{"count": 1}, []string{"warned"}); err != nil {
		t.Fatalf("Success failed: %v", err)
	}
	var env contract.SuccessEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope JSON: %v", err)
	}
	if env.Command != "month" || env.SchemaVersion != contract.SchemaVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(env.Warnings) != 1 || env.Warnings[0] != "warned" {
		t.Fatalf("warnings not carried: %+v", env.Warnings)
	}
}

func TestSuccessJSONLEmitsOnePerLine(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{Mode: ModeJSONL, Out: &buf}
	items := []contract.Occurrence{
		{SourceEventID: "a", Title: "one", RenderHint: contract.HintNormal},
		{SourceEventID: "b", Title: "two", RenderHint: contract.HintNormal},
	}
	if err := p.Success(items, nil, nil); err != nil {
		t.Fatalf("Success failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestErrorEnvelopeToErrWriter(t *testing.T) {
	var out, errBuf bytes.Buffer
	p := Printer{Mode: ModeJSON, Out: &out, Err: &errBuf}
	if err := p.Error(contract.ErrInvalidUsage, "bad flag", "try --help"); err != nil {
		t.Fatalf("Error failed: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("error envelope leaked to stdout: %q", out.String())
	}
	var env contract.ErrorEnvelope
	if err := json.Unmarshal(errBuf.Bytes(), &env); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	if env.Error.Code != contract.ErrInvalidUsage || env.Error.Hint != "try --help" {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
}

func TestPlainEmptySlice(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{Mode: ModePlain, Out: &buf}
	if err := p.Success([]contract.Occurrence{}, nil, nil); err != nil {
		t.Fatalf("Success failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "no results" {
		t.Fatalf("unexpected plain output: %q", buf.String())
	}
}
