package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserter_Defaults(t *testing.T) {
	opts := NewTextAsserter(t).Options()
	assert.True(t, opts.TrimSpace)
	assert.True(t, opts.IgnoreTrailingWhitespace)
	assert.False(t, opts.IgnoreEmptyLines)
	assert.False(t, opts.EnableColors)
}

func TestTextAsserter_NormalizesBeforeComparing(t *testing.T) {
	rec := &recordingT{}
	ta := NewTextAsserter(rec)

	assert.True(t, ta.Assert("\n72 bpm  \n80 bpm\n", "72 bpm\n80 bpm"), "trailing whitespace MUST be ignored by default")
	assert.Empty(t, rec.errors)
}

func TestTextAsserter_ReportsUnifiedDiff(t *testing.T) {
	rec := &recordingT{}
	ta := NewTextAsserter(rec)

	assert.False(t, ta.Assert("72 bpm\n81 bpm", "72 bpm\n80 bpm"))
	if assert.Len(t, rec.errors, 1) {
		assert.Contains(t, rec.errors[0], "-80 bpm")
		assert.Contains(t, rec.errors[0], "+81 bpm")
	}
}

func TestTextAsserter_IgnoreEmptyLines(t *testing.T) {
	ta := NewTextAsserter(t, WithIgnoreEmptyLines(true))
	assert.Empty(t, ta.Diff("a\n\n\nb", "a\nb"))

	strict := NewTextAsserter(t)
	assert.NotEmpty(t, strict.Diff("a\n\nb", "a\nb"), "blank lines MUST count unless ignored")
}
