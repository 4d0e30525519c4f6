package capability

import "github.com/scpi-protocol/scpi-go/pkg/model"

// TriggerGroup declares the edge trigger facet of an oscilloscope.
func TriggerGroup() model.GroupDecl {
	return model.GroupDecl{
		Name: "trigger",
		Attributes: []model.AttributeDescriptor{
			{
				Name:        "source",
				Domain:      model.StringDomain(),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":trigger:edge:source?",
				SetCommand:  ":trigger:edge:source %s",
				Description: "Input the trigger subsystem monitors, e.g. CHAN1.",
			},
			{
				Name:        "level",
				Domain:      model.Unbounded("V"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":trigger:edge:level?",
				SetCommand:  ":trigger:edge:level %s",
				Description: "Voltage threshold the edge trigger fires at.",
			},
			{
				Name: "slope",
				Domain: model.Enum(
					model.EnumValue{Value: "positive", Token: "POSitive", Aliases: []string{"POS", "RISE"}},
					model.EnumValue{Value: "negative", Token: "NEGative", Aliases: []string{"NEG", "FALL"}},
					model.EnumValue{Value: "either", Token: "EITHer", Aliases: []string{"EITH"}},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":trigger:edge:slope?",
				SetCommand:  ":trigger:edge:slope %s",
				Description: "Edge direction that fires the trigger.",
			},
			{
				Name: "mode",
				Domain: model.Enum(
					model.EnumValue{Value: "auto", Token: "AUTO"},
					model.EnumValue{Value: "normal", Token: "NORMal", Aliases: []string{"NORM"}},
					model.EnumValue{Value: "single", Token: "SINGle", Aliases: []string{"SING"}},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":trigger:sweep?",
				SetCommand:  ":trigger:sweep %s",
				Description: "Sweep mode of the trigger subsystem.",
			},
		},
	}
}

// AcquisitionGroup declares the horizontal and acquisition facet. The
// timebase scale, sample rate and record length are coupled on real
// hardware: changing one makes the instrument recompute the others, so a
// write invalidates the cached siblings.
func AcquisitionGroup() model.GroupDecl {
	return model.GroupDecl{
		Name: "acquisition",
		Attributes: []model.AttributeDescriptor{
			{
				Name: "horizontal_mode",
				Domain: model.Enum(
					model.EnumValue{Value: "auto", Token: "AUTO"},
					model.EnumValue{Value: "constant", Token: "CONStant", Aliases: []string{"CONS"}},
					model.EnumValue{Value: "manual", Token: "MANual", Aliases: []string{"MAN"}},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":horizontal:mode?",
				SetCommand:  ":horizontal:mode %s",
				Description: "How the scope derives sample rate and record length from the timebase.",
			},
			{
				Name:       "timebase_scale",
				Domain:     model.Numeric(200e-12, 1000, "s/div"),
				Access:     model.AccessRead | model.AccessWrite,
				GetCommand: ":horizontal:mode:scale?",
				SetCommand: ":horizontal:mode:scale %s",
				MayClamp:   true,
				Invalidates: []string{
					"acquisition.sample_rate",
					"acquisition.record_length",
				},
				Description: "Seconds per horizontal division. The instrument rounds to a legal step.",
			},
			{
				Name:       "sample_rate",
				Domain:     model.Unbounded("Sa/s"),
				Access:     model.AccessRead | model.AccessWrite,
				GetCommand: ":horizontal:mode:samplerate?",
				SetCommand: ":horizontal:mode:samplerate %s",
				MayClamp:   true,
				Invalidates: []string{
					"acquisition.timebase_scale",
					"acquisition.record_length",
				},
				Description: "Samples per second the digitizer runs at.",
			},
			{
				Name:       "record_length",
				Domain:     model.Numeric(1, 1e10, "points"),
				Access:     model.AccessRead | model.AccessWrite,
				GetCommand: ":horizontal:mode:recordlength?",
				SetCommand: ":horizontal:mode:recordlength %s",
				MayClamp:   true,
				Invalidates: []string{
					"acquisition.timebase_scale",
					"acquisition.sample_rate",
				},
				Description: "Number of points captured per acquisition.",
			},
			{
				Name:        "roll",
				Domain:      model.Bool(),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":horizontal:roll?",
				SetCommand:  ":horizontal:roll %s",
				Description: "Roll-mode display for slow timebases.",
			},
		},
	}
}

// ChannelGroup declares the per-input vertical facet. The instance count is
// asked of the instrument so one table serves 2- and 4-channel models.
func ChannelGroup() model.GroupDecl {
	return model.GroupDecl{
		Name:       "channel",
		Indexed:    true,
		Count:      4,
		CountQuery: ":system:channel:count?",
		Attributes: []model.AttributeDescriptor{
			{
				Name:        "enabled",
				Domain:      model.Bool(),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":channel{ch}:display?",
				SetCommand:  ":channel{ch}:display %s",
				Description: "Whether the channel is displayed and acquired.",
			},
			{
				Name:       "scale",
				Domain:     model.Numeric(1e-3, 10, "V/div"),
				Access:     model.AccessRead | model.AccessWrite,
				GetCommand: ":channel{ch}:scale?",
				SetCommand: ":channel{ch}:scale %s",
				MayClamp:   true,
				Invalidates: []string{
					"channel[{ch}].offset",
				},
				Description: "Volts per vertical division. A range change moves the legal offset window.",
			},
			{
				Name:        "offset",
				Domain:      model.Unbounded("V"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":channel{ch}:offset?",
				SetCommand:  ":channel{ch}:offset %s",
				Description: "Vertical offset of the channel.",
			},
			{
				Name: "coupling",
				Domain: model.Enum(
					model.EnumValue{Value: "dc", Token: "DC"},
					model.EnumValue{Value: "ac", Token: "AC"},
					model.EnumValue{Value: "ground", Token: "GND"},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":channel{ch}:coupling?",
				SetCommand:  ":channel{ch}:coupling %s",
				Description: "Input coupling of the channel.",
			},
			{
				Name:        "probe_attenuation",
				Domain:      model.Numeric(0.001, 10000, "x"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":channel{ch}:probe?",
				SetCommand:  ":channel{ch}:probe %s",
				Description: "Attenuation factor of the attached probe.",
			},
		},
	}
}

// MeasurementGroup declares the waveform readout facet. All attributes are
// read-only; the waveform itself arrives as a definite-length binary block.
func MeasurementGroup() model.GroupDecl {
	return model.GroupDecl{
		Name:       "measurement",
		FetchQuery: ":waveform:data?",
		Attributes: []model.AttributeDescriptor{
			{
				Name:        "preamble",
				Domain:      model.StringDomain(),
				Access:      model.AccessRead,
				GetCommand:  ":waveform:preamble?",
				Description: "Scaling preamble for the most recent waveform transfer.",
			},
			{
				Name:        "source",
				Domain:      model.StringDomain(),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":waveform:source?",
				SetCommand:  ":waveform:source %s",
				Invalidates: []string{"measurement.preamble"},
				Description: "Channel the next waveform transfer reads from.",
			},
		},
	}
}

// DisplayGroup declares the screenshot facet. The hardcopy image arrives as
// a definite-length binary block; there is nothing to cache.
func DisplayGroup() model.GroupDecl {
	return model.GroupDecl{
		Name:       "display",
		FetchQuery: ":display:data?",
	}
}

// ScopeClass composes the oscilloscope capability groups. Setup blobs pass
// through the :system:setup commands untouched.
func ScopeClass() model.ClassDecl {
	return model.ClassDecl{
		Name: "scope",
		Groups: []model.GroupDecl{
			TriggerGroup(),
			AcquisitionGroup(),
			ChannelGroup(),
			MeasurementGroup(),
			DisplayGroup(),
		},
		SetupQuery:   ":system:setup?",
		SetupCommand: ":system:setup",
	}
}
