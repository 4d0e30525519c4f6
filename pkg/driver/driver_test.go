package driver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpi-protocol/scpi-go/internal/sim"
	"github.com/scpi-protocol/scpi-go/pkg/capability"
	"github.com/scpi-protocol/scpi-go/pkg/resource"
	"github.com/scpi-protocol/scpi-go/pkg/scpi"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

const testResource = "TCPIP0::192.0.2.10::INSTR"

func scopeDefaults() map[string]string {
	return map[string]string{
		":system:channel:count":         "2",
		":trigger:edge:source":          "CHAN1",
		":trigger:edge:level":           "0e+00",
		":trigger:edge:slope":           "POS",
		":trigger:sweep":                "AUTO",
		":horizontal:mode":              "AUTO",
		":horizontal:mode:scale":        "1e-06",
		":horizontal:mode:samplerate":   "1e+09",
		":horizontal:mode:recordlength": "1e+04",
		":horizontal:roll":              "0",
		":channel1:display":             "1",
		":channel1:scale":               "1e+00",
		":channel1:offset":              "0e+00",
		":channel1:coupling":            "DC",
		":channel1:probe":               "1e+01",
		":channel2:display":             "0",
		":channel2:scale":               "5e-01",
		":channel2:offset":              "0e+00",
		":channel2:coupling":            "AC",
		":channel2:probe":               "1e+00",
		":waveform:preamble":            "preamble",
		":waveform:source":              "CHAN1",
	}
}

func newScopeSim() *sim.Instrument {
	return sim.New("Example Instruments,EX2040,SN0001,1.2.3", scopeDefaults())
}

func simRegistry(inst *sim.Instrument) *transport.Registry {
	r := transport.NewRegistry()
	r.Register(resource.KindLAN, func(resource.Descriptor, transport.Options) (transport.Binding, error) {
		return inst, nil
	})
	return r
}

func newScopeDriver(t *testing.T, inst *sim.Instrument) *Driver {
	t.Helper()
	drv := NewWithRegistry(capability.ScopeClass(), simRegistry(inst))

	cfg := DefaultConfig()
	cfg.Channel.QueryTimeout = 100 * time.Millisecond
	require.NoError(t, drv.Initialize(testResource, cfg))
	t.Cleanup(func() { _ = drv.Close() })
	return drv
}

func TestDriverLifecycle(t *testing.T) {
	inst := newScopeSim()
	drv := NewWithRegistry(capability.ScopeClass(), simRegistry(inst))
	assert.Equal(t, StateUninitialized, drv.State())

	cfg := DefaultConfig()
	cfg.Channel.QueryTimeout = 100 * time.Millisecond
	require.NoError(t, drv.Initialize(testResource, cfg))
	assert.Equal(t, StateReady, drv.State())
	assert.Equal(t, "EX2040", drv.Identity().Model)
	assert.Equal(t, testResource, drv.Resource())

	err := drv.Initialize(testResource, cfg)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	require.NoError(t, drv.Close())
	assert.Equal(t, StateClosed, drv.State())

	// Idempotent: a second Close never tears down twice.
	require.NoError(t, drv.Close())
	assert.Equal(t, 1, inst.CloseCount())
}

func TestDriverInitializeConnectFailure(t *testing.T) {
	r := transport.NewRegistry()
	r.Register(resource.KindLAN, func(resource.Descriptor, transport.Options) (transport.Binding, error) {
		return nil, transport.ErrConnectionFailed
	})

	drv := NewWithRegistry(capability.ScopeClass(), r)
	err := drv.Initialize(testResource, DefaultConfig())
	assert.ErrorIs(t, err, transport.ErrConnectionFailed)
	assert.Equal(t, StateUninitialized, drv.State())
}

func TestDriverInitializeIdentifyFailureReleasesBinding(t *testing.T) {
	inst := newScopeSim()
	inst.GoSilent()

	drv := NewWithRegistry(capability.ScopeClass(), simRegistry(inst))
	cfg := DefaultConfig()
	cfg.Channel.QueryTimeout = 50 * time.Millisecond

	err := drv.Initialize(testResource, cfg)
	assert.ErrorIs(t, err, scpi.ErrTimeout)
	assert.Equal(t, StateUninitialized, drv.State())
	assert.Equal(t, 1, inst.CloseCount(), "a failed Initialize must release the session")
}

func TestDriverMalformedResource(t *testing.T) {
	drv := NewWithRegistry(capability.ScopeClass(), transport.NewRegistry())
	err := drv.Initialize("TCPIP0::INSTR", DefaultConfig())
	assert.ErrorIs(t, err, resource.ErrMalformedResource)
	assert.Equal(t, StateUninitialized, drv.State())
}

func TestDriverRequiresReady(t *testing.T) {
	drv := NewWithRegistry(capability.ScopeClass(), transport.NewRegistry())

	_, err := drv.Get("trigger.level")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, drv.Set("trigger.level", 0.5), ErrNotInitialized)
	_, err = drv.Group("trigger")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, drv.Reset(), ErrNotInitialized)
}

func TestDriverGroupComposition(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	assert.Equal(t, []string{"trigger", "acquisition", "channel", "measurement", "display"}, drv.GroupNames())

	// The channel count came from the instrument, not the declaration.
	assert.Equal(t, 2, drv.GroupCount("channel"))

	_, err := drv.GroupAt("channel", 3)
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)
	_, err = drv.GroupAt("channel", 0)
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)

	_, err = drv.Group("channel")
	require.Error(t, err, "indexed groups need GroupAt")
	_, err = drv.GroupAt("trigger", 1)
	require.Error(t, err, "non-indexed groups need Group")

	_, err = drv.Group("spectrum")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestDriverGroupAccess(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	trig, err := drv.Group("trigger")
	require.NoError(t, err)

	level, err := trig.GetNumber("level")
	require.NoError(t, err)
	assert.Equal(t, 0.0, level)

	slope, err := trig.GetString("slope")
	require.NoError(t, err)
	assert.Equal(t, "positive", slope)

	ch2, err := drv.GroupAt("channel", 2)
	require.NoError(t, err)
	assert.Equal(t, "channel[2].scale", ch2.QualifiedName("scale"))

	enabled, err := ch2.GetBool("enabled")
	require.NoError(t, err)
	assert.False(t, enabled)

	scale, err := ch2.GetNumber("scale")
	require.NoError(t, err)
	assert.Equal(t, 0.5, scale)

	_, err = trig.Get("bogus")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestDriverWriteThenReadSkipsInstrument(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	require.NoError(t, drv.Set("trigger.level", 0.5))

	v, err := drv.Get("trigger.level")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, 0, inst.QueryCount(":trigger:edge:level?"))

	// The write reached the wire even though the read did not.
	applied, ok := inst.State(":trigger:edge:level")
	require.True(t, ok)
	assert.Equal(t, "5e-01", applied)
}

func TestDriverClampedWriteReadsBack(t *testing.T) {
	inst := newScopeSim()
	inst.Clamp(":horizontal:mode:scale", func(string) string { return "2e-06" })
	drv := newScopeDriver(t, inst)

	require.NoError(t, drv.Set("acquisition.timebase_scale", 1.9e-6))

	v, err := drv.Get("acquisition.timebase_scale")
	require.NoError(t, err)
	assert.Equal(t, 2e-6, v, "read after a clamping write returns the applied value")
	assert.Equal(t, 1, inst.QueryCount(":horizontal:mode:scale?"))
}

func TestDriverInstrumentErrorSurfaced(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	inst.PushError(-222, "Data out of range")
	err := drv.Set("trigger.level", 0.5)

	var instErr scpi.InstrumentError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, -222, instErr.Code)
	assert.Equal(t, StateReady, drv.State(), "an instrument error does not change lifecycle state")
}

func TestDriverTimeoutLeavesReady(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	drv.Invalidate("trigger.level")
	inst.GoSilent()

	_, err := drv.Get("trigger.level")
	assert.ErrorIs(t, err, scpi.ErrTimeout)
	assert.Equal(t, StateReady, drv.State())
}

func TestDriverValidationNeverReachesWire(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	before := len(inst.Commands())
	err := drv.Set("channel[1].scale", 99.0)
	require.Error(t, err)
	assert.Len(t, inst.Commands(), before, "out-of-range values stay local")
}

func TestDriverResetInvalidates(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	require.NoError(t, drv.Set("trigger.level", 0.5))
	require.NoError(t, drv.Reset())

	// The cached write is gone; the read queries the restored default.
	v, err := drv.Get("trigger.level")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 1, inst.QueryCount(":trigger:edge:level?"))
}

func TestDriverSetupRoundTrip(t *testing.T) {
	inst := newScopeSim()
	drv := newScopeDriver(t, inst)

	require.NoError(t, drv.Set("trigger.level", 0.5))
	blob, err := drv.SaveSetup()
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	require.NoError(t, drv.Set("trigger.level", 1.5))

	require.NoError(t, drv.RestoreSetup(blob))
	applied, ok := inst.State(":trigger:edge:level")
	require.True(t, ok)
	assert.Equal(t, "5e-01", applied)

	v, err := drv.Get("trigger.level")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v, "restore invalidates the cache so the read sees instrument state")
}

func TestDriverAbsentGroup(t *testing.T) {
	class := capability.ScopeClass()
	for i := range class.Groups {
		if class.Groups[i].Name == "measurement" {
			class.Groups[i].Absent = func(model string) bool { return model == "EX2040" }
		}
	}

	inst := newScopeSim()
	drv := NewWithRegistry(class, simRegistry(inst))
	cfg := DefaultConfig()
	cfg.Channel.QueryTimeout = 100 * time.Millisecond
	require.NoError(t, drv.Initialize(testResource, cfg))
	defer drv.Close()

	_, err := drv.Group("measurement")
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)
	_, err = drv.Get("measurement.preamble")
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)
	assert.NotContains(t, drv.GroupNames(), "measurement")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scpi.yaml")
	data := []byte("transport:\n  prefer_generic: true\nchannel:\n  query_timeout: 2s\n  poll_error_queue: false\nskip_identity: true\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Transport.PreferGeneric)
	assert.Equal(t, 2*time.Second, cfg.Channel.QueryTimeout)
	assert.False(t, cfg.Channel.PollErrorQueue)
	assert.True(t, cfg.SkipIdentity)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func fgenDefaults() map[string]string {
	return map[string]string{
		":output1":                        "0",
		":output1:impedance":              "FIFTY",
		":output2":                        "0",
		":output2:impedance":              "FIFTY",
		":source1:function":               "SIN",
		":source1:frequency":              "1e+03",
		":source1:voltage":                "1e+00",
		":source1:voltage:offset":         "0e+00",
		":source1:phase":                  "0e+00",
		":source1:function:ramp:symmetry": "5e+01",
		":source1:pulse:dcycle":           "5e+01",
		":source2:function":               "SIN",
		":source2:frequency":              "1e+03",
		":source2:voltage":                "1e+00",
		":source2:voltage:offset":         "0e+00",
		":source2:phase":                  "0e+00",
		":source2:function:ramp:symmetry": "5e+01",
		":source2:pulse:dcycle":           "5e+01",
	}
}

func newFgenDriver(t *testing.T, inst *sim.Instrument) *Driver {
	t.Helper()
	drv := NewWithRegistry(capability.FgenClass(), simRegistry(inst))

	cfg := DefaultConfig()
	cfg.Channel.QueryTimeout = 100 * time.Millisecond
	require.NoError(t, drv.Initialize(testResource, cfg))
	t.Cleanup(func() { _ = drv.Close() })
	return drv
}

func TestDriverCompositeApply(t *testing.T) {
	inst := sim.New("Example Instruments,EX1022,SN0002,2.0.1", fgenDefaults())
	drv := newFgenDriver(t, inst)

	src, err := drv.GroupAt("source", 1)
	require.NoError(t, err)

	f, err := src.GetNumber("frequency")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, f)
	assert.Equal(t, 1, inst.QueryCount(":source1:frequency?"))

	// The shorthand reconfigures the waveform behind the cache's back.
	inst.RawResponse(":source1:frequency?", []byte("2e+03"))
	require.NoError(t, src.Invoke("apply", "sinusoid 2e3,2.5,0"))
	assert.Contains(t, inst.Commands(), ":source1:apply:sinusoid 2e3,2.5,0")

	f, err = src.GetNumber("frequency")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, f, "frequency is stale after apply and re-queried")
	assert.Equal(t, 2, inst.QueryCount(":source1:frequency?"))

	err = src.Invoke("burst", "10")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestDriverWaveformFetch(t *testing.T) {
	inst := newScopeSim()
	waveform := []byte{0x01, 0x02, 0xff, 0x00, 0x7f}
	inst.RawResponse(":waveform:data?", scpi.EncodeBlock(waveform))
	drv := newScopeDriver(t, inst)

	meas, err := drv.Group("measurement")
	require.NoError(t, err)
	data, err := meas.Fetch()
	require.NoError(t, err)
	assert.Equal(t, waveform, data)

	// Groups without bulk data refuse the fetch.
	trig, err := drv.Group("trigger")
	require.NoError(t, err)
	_, err = trig.Fetch()
	assert.ErrorIs(t, err, ErrCapabilityNotSupported)
}

func TestDriverLearnSetupRoundTrip(t *testing.T) {
	inst := sim.New("Example Instruments,EX1022,SN0002,2.0.1", fgenDefaults())
	drv := newFgenDriver(t, inst)

	src, err := drv.GroupAt("source", 1)
	require.NoError(t, err)
	require.NoError(t, src.Set("offset", 1.5))

	blob, err := drv.SaveSetup()
	require.NoError(t, err)
	assert.Contains(t, string(blob), ":source1:voltage:offset 1.5e+00")

	require.NoError(t, src.Set("offset", -2.0))

	require.NoError(t, drv.RestoreSetup(blob))
	applied, ok := inst.State(":source1:voltage:offset")
	require.True(t, ok)
	assert.Equal(t, "1.5e+00", applied)

	v, err := src.Get("offset")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v, "restore invalidates the cache so the read sees instrument state")
}

func TestDriverScreenshotFetch(t *testing.T) {
	inst := newScopeSim()
	image := []byte{0x89, 'P', 'N', 'G', '\r', '\n'}
	inst.RawResponse(":display:data?", scpi.EncodeBlock(image))
	drv := newScopeDriver(t, inst)

	disp, err := drv.Group("display")
	require.NoError(t, err)
	data, err := disp.Fetch()
	require.NoError(t, err)
	assert.Equal(t, image, data)
}
