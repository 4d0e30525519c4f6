package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/pkg/model"
)

// fakeChannel is a scripted CommandChannel: queries answer from a map and
// both directions are recorded.
type fakeChannel struct {
	responses map[string]string
	sends     []string
	queries   []string
	sendErr   error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{responses: make(map[string]string)}
}

func (f *fakeChannel) Send(command string) error {
	f.sends = append(f.sends, command)
	return f.sendErr
}

func (f *fakeChannel) Query(command string) (string, error) {
	f.queries = append(f.queries, command)
	resp, ok := f.responses[command]
	if !ok {
		return "", errors.New("unscripted query: " + command)
	}
	return resp, nil
}

func levelDescriptor() model.AttributeDescriptor {
	return model.AttributeDescriptor{
		Name:       "level",
		Domain:     model.Unbounded("V"),
		Access:     model.AccessRead | model.AccessWrite,
		GetCommand: ":trigger:edge:level?",
		SetCommand: ":trigger:edge:level %s",
	}
}

func TestCacheReadQueriesOnceWhenStale(t *testing.T) {
	ch := newFakeChannel()
	ch.responses[":trigger:edge:level?"] = "1.5e+00"

	cache := NewAttributeCache(ch)
	name := cache.Register("trigger", 0, levelDescriptor())
	require.Equal(t, "trigger.level", name)

	v, err := cache.Read(name)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	assert.Len(t, ch.queries, 1)

	// Second read answers from the cache.
	v, err = cache.Read(name)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	assert.Len(t, ch.queries, 1)
}

func TestCacheWriteThenReadWithoutIO(t *testing.T) {
	ch := newFakeChannel()
	cache := NewAttributeCache(ch)
	name := cache.Register("trigger", 0, levelDescriptor())

	require.NoError(t, cache.Write(name, 0.25))
	require.Len(t, ch.sends, 1)
	assert.Equal(t, ":trigger:edge:level 2.5e-01", ch.sends[0])

	v, err := cache.Read(name)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)
	assert.Empty(t, ch.queries, "read after write must not touch the instrument")
}

func TestCacheValidationBeforeIO(t *testing.T) {
	ch := newFakeChannel()
	cache := NewAttributeCache(ch)

	desc := levelDescriptor()
	desc.Domain = model.Numeric(-5, 5, "V")
	name := cache.Register("trigger", 0, desc)

	err := cache.Write(name, 12.0)
	require.ErrorIs(t, err, model.ErrOutOfRange)
	assert.Empty(t, ch.sends, "invalid value must never reach the instrument")

	err = cache.Write(name, "not a number")
	require.ErrorIs(t, err, model.ErrValueType)
	assert.Empty(t, ch.sends)
}

func TestCacheClampLeavesStale(t *testing.T) {
	ch := newFakeChannel()
	ch.responses[":horizontal:mode:scale?"] = "2e-06"

	desc := model.AttributeDescriptor{
		Name:       "timebase_scale",
		Domain:     model.Unbounded("s/div"),
		Access:     model.AccessRead | model.AccessWrite,
		GetCommand: ":horizontal:mode:scale?",
		SetCommand: ":horizontal:mode:scale %s",
		MayClamp:   true,
	}

	cache := NewAttributeCache(ch)
	name := cache.Register("acquisition", 0, desc)

	require.NoError(t, cache.Write(name, 1.9e-6))
	assert.False(t, cache.Fresh(name), "clamping write must leave the cache stale")

	// The read fetches what the instrument actually applied.
	v, err := cache.Read(name)
	require.NoError(t, err)
	assert.Equal(t, 2e-6, v)
	assert.True(t, cache.Fresh(name))
}

func TestCacheCoupledInvalidation(t *testing.T) {
	ch := newFakeChannel()
	ch.responses[":horizontal:mode:samplerate?"] = "1e+09"

	scale := model.AttributeDescriptor{
		Name:        "timebase_scale",
		Domain:      model.Unbounded("s/div"),
		Access:      model.AccessRead | model.AccessWrite,
		GetCommand:  ":horizontal:mode:scale?",
		SetCommand:  ":horizontal:mode:scale %s",
		Invalidates: []string{"acquisition.sample_rate"},
	}
	rate := model.AttributeDescriptor{
		Name:       "sample_rate",
		Domain:     model.Unbounded("Sa/s"),
		Access:     model.AccessRead | model.AccessWrite,
		GetCommand: ":horizontal:mode:samplerate?",
		SetCommand: ":horizontal:mode:samplerate %s",
	}

	cache := NewAttributeCache(ch)
	scaleName := cache.Register("acquisition", 0, scale)
	rateName := cache.Register("acquisition", 0, rate)

	// Prime the sample rate cache.
	_, err := cache.Read(rateName)
	require.NoError(t, err)
	require.True(t, cache.Fresh(rateName))

	// Writing the coupled attribute makes it stale again.
	require.NoError(t, cache.Write(scaleName, 1e-6))
	assert.False(t, cache.Fresh(rateName))

	_, err = cache.Read(rateName)
	require.NoError(t, err)
	assert.Len(t, ch.queries, 2, "stale read must go back to the instrument")
}

func TestCacheIndexedExpansion(t *testing.T) {
	ch := newFakeChannel()
	cache := NewAttributeCache(ch)

	desc := model.AttributeDescriptor{
		Name:        "scale",
		Domain:      model.Unbounded("V/div"),
		Access:      model.AccessRead | model.AccessWrite,
		GetCommand:  ":channel{ch}:scale?",
		SetCommand:  ":channel{ch}:scale %s",
		Invalidates: []string{"channel[{ch}].offset"},
	}
	offset := model.AttributeDescriptor{
		Name:       "offset",
		Domain:     model.Unbounded("V"),
		Access:     model.AccessRead | model.AccessWrite,
		GetCommand: ":channel{ch}:offset?",
		SetCommand: ":channel{ch}:offset %s",
	}

	ch.responses[":channel2:offset?"] = "0e+00"

	name := cache.Register("channel", 2, desc)
	offName := cache.Register("channel", 2, offset)
	require.Equal(t, "channel[2].scale", name)

	_, err := cache.Read(offName)
	require.NoError(t, err)

	require.NoError(t, cache.Write(name, 0.5))
	assert.Equal(t, ":channel2:scale 5e-01", ch.sends[0])
	assert.False(t, cache.Fresh(offName), "invalidation must target the same instance")
}

func TestCacheAccessEnforcement(t *testing.T) {
	ch := newFakeChannel()
	cache := NewAttributeCache(ch)

	readOnly := model.AttributeDescriptor{
		Name:       "preamble",
		Domain:     model.StringDomain(),
		Access:     model.AccessRead,
		GetCommand: ":waveform:preamble?",
	}
	name := cache.Register("measurement", 0, readOnly)

	err := cache.Write(name, "x")
	assert.ErrorIs(t, err, model.ErrAttributeNotWritable)

	_, err = cache.Read("measurement.nonexistent")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestCacheSendFailureInvalidates(t *testing.T) {
	ch := newFakeChannel()
	ch.responses[":trigger:edge:level?"] = "0e+00"

	cache := NewAttributeCache(ch)
	name := cache.Register("trigger", 0, levelDescriptor())

	_, err := cache.Read(name)
	require.NoError(t, err)
	require.True(t, cache.Fresh(name))

	ch.sendErr = errors.New("broken pipe")
	err = cache.Write(name, 1.0)
	require.Error(t, err)
	assert.False(t, cache.Fresh(name), "a failed write leaves the applied value unknown")
}

func TestCacheInvalidateAll(t *testing.T) {
	ch := newFakeChannel()
	ch.responses[":trigger:edge:level?"] = "1e+00"

	cache := NewAttributeCache(ch)
	name := cache.Register("trigger", 0, levelDescriptor())

	_, err := cache.Read(name)
	require.NoError(t, err)

	cache.InvalidateAll()
	assert.False(t, cache.Fresh(name))
}
