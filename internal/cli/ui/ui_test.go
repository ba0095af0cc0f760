package ui

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prefkit/prefkit/compiler/gen"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	p.Success("done")
	p.Info("watching %d directories", 2)
	p.Warn("slow")
	assert.Equal(t, "✓ done\nwatching 2 directories\n! slow\n", buf.String())
}

func TestPrinterError(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	p.Error(errors.Join(
		gen.NewSchemaError("Settings", "Level", "no type converter", nil),
		errors.New("first\nsecond"),
	))
	want := fmt.Sprintf("✗ schema errors\n   %s\n   first\n   second\n",
		gen.NewSchemaError("Settings", "Level", "no type converter", nil).Error())
	assert.Equal(t, want, buf.String())

	buf.Reset()
	p.Error(nil)
	assert.Empty(t, buf.String())
}

func TestTitle(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{gen.NewConfigError("Package", nil, "required"), "configuration errors"},
		{gen.NewGenerationError("write", "a.go", "failed", nil), "generation failed"},
		{fmt.Errorf("round 2: %w", gen.ErrUnresolved), "unresolved types"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Title(tt.err), tt.err.Error())
	}
}

func TestLines(t *testing.T) {
	err := errors.Join(
		errors.New("a"),
		errors.Join(errors.New("b"), errors.New("c\n\n  d  ")),
	)
	assert.Equal(t, []string{"a", "b", "c", "d"}, Lines(err))
}

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		report *gen.Report
		want   string
	}{
		{
			name:   "empty",
			report: &gen.Report{Rounds: 1},
			want:   "no preferences found\n",
		},
		{
			name:   "up to date",
			report: &gen.Report{Rounds: 1, Files: []string{"a.go", "b.go"}},
			want:   "✓ 2 files up to date\n",
		},
		{
			name:   "written",
			report: &gen.Report{Rounds: 2, Files: []string{"a.go", "b.go"}, Written: 1, Removed: []string{"old.go"}},
			want:   "✓ generated 2 files (1 written) in 2 rounds\n  removed old.go\n",
		},
		{
			name:   "removed only",
			report: &gen.Report{Rounds: 1, Removed: []string{"old.go"}},
			want:   "✓ generated 0 files (0 written) in 1 round\n  removed old.go\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf, true).Report(tt.report)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
