package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/prefkit/prefkit/schema"
)

// fakeStep generates one symbol per schema and fails according to fail.
type fakeStep struct {
	name  string
	fail  func(round int, sym Symbol) error
	round *int
	calls map[string]int
}

func newFakeStep(name string, round *int, fail func(int, Symbol) error) *fakeStep {
	return &fakeStep{name: name, fail: fail, round: round, calls: make(map[string]int)}
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Symbols(c *Context) []Symbol {
	syms := make([]Symbol, len(c.Schemas))
	for i, sc := range c.Schemas {
		syms[i] = schemaSymbol(sc)
	}
	return syms
}

func (s *fakeStep) Generate(_ *Context, sym Symbol) error {
	s.calls[sym.Name]++
	if s.fail != nil {
		return s.fail(*s.round, sym)
	}
	return nil
}

func namedSchema(name string) *schema.Schema {
	return &schema.Schema{Name: name, PkgPath: modelPkg, PkgName: "model"}
}

func TestSchedulerDefers(t *testing.T) {
	var round int
	a, b := namedSchema("A"), namedSchema("B")
	ready := newFakeStep("ready", &round, nil)
	late := newFakeStep("late", &round, func(round int, sym Symbol) error {
		if sym.Schema.Name == "B" && round < 2 {
			return fmt.Errorf("%w: B", ErrUnresolved)
		}
		return nil
	})
	s := NewScheduler(zaptest.NewLogger(t), ready, late)
	c := newTestContext(t, []*schema.Schema{a, b})

	round = 1
	deferred, err := s.Process(c)
	require.NoError(t, err)
	require.Len(t, deferred, 1)
	assert.Equal(t, b.QualifiedName(), deferred[0].Name)
	assert.False(t, s.Done())
	assert.Equal(t, []string{"late"}, s.Pending())
	assert.Equal(t, 3, s.Completed())
	assert.True(t, IsUnresolved(s.Finish()))

	round = 2
	deferred, err = s.Process(c)
	require.NoError(t, err)
	assert.Empty(t, deferred)
	assert.True(t, s.Done())
	assert.Equal(t, 4, s.Completed())
	assert.NoError(t, s.Finish())

	// Generated symbols are not generated again.
	assert.Equal(t, 1, ready.calls[a.QualifiedName()])
	assert.Equal(t, 1, late.calls[a.QualifiedName()])
	assert.Equal(t, 2, late.calls[b.QualifiedName()])
}

func TestSchedulerErrors(t *testing.T) {
	var round int
	fail := errors.New("no storage")
	broken := newFakeStep("broken", &round, func(int, Symbol) error { return fail })
	ok := newFakeStep("ok", &round, nil)
	s := NewScheduler(nil, broken, ok)
	c := newTestContext(t, []*schema.Schema{namedSchema("A"), namedSchema("B")})

	deferred, err := s.Process(c)
	require.Error(t, err)
	assert.Empty(t, deferred)
	assert.ErrorIs(t, err, fail)
	// Same message is reported once.
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 1)
	// Siblings still run.
	assert.Len(t, ok.calls, 2)
	assert.Equal(t, []string{"broken"}, s.Pending())
}

func TestSchedulerNoSchemas(t *testing.T) {
	var round int
	step := newFakeStep("step", &round, nil)
	s := NewScheduler(nil, step)
	deferred, err := s.Process(newTestContext(t, nil))
	require.NoError(t, err)
	assert.Nil(t, deferred)
	assert.Empty(t, step.calls)
}

func TestSchedulerFinish(t *testing.T) {
	var round int
	unresolved := func(int, Symbol) error { return fmt.Errorf("%w: waiting for A", ErrUnresolved) }
	first := newFakeStep("first", &round, unresolved)
	second := newFakeStep("second", &round, unresolved)
	s := NewScheduler(nil, first, second)
	c := newTestContext(t, []*schema.Schema{namedSchema("A"), namedSchema("B")})

	deferred, err := s.Process(c)
	require.NoError(t, err)
	assert.Len(t, deferred, 4)

	err = s.Finish()
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.True(t, IsUnresolved(err))
	// Both symbols of a step share the message; the second step repeats it.
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 1)
	assert.Contains(t, err.Error(), "phase first")
}
