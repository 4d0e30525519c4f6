package capability

import "github.com/scpi-protocol/scpi-go/pkg/model"

// OutputGroup declares the per-connector output facet of a function
// generator: routing state and load impedance, separate from the waveform
// the source produces.
func OutputGroup() model.GroupDecl {
	return model.GroupDecl{
		Name:    "output",
		Indexed: true,
		Count:   2,
		Attributes: []model.AttributeDescriptor{
			{
				Name:        "enabled",
				Domain:      model.Bool(),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":output{ch}?",
				SetCommand:  ":output{ch} %s",
				Description: "Whether the output relay is closed.",
			},
			{
				Name: "impedance",
				Domain: model.Enum(
					model.EnumValue{Value: "high_z", Token: "OMEG", Aliases: []string{"INFinity", "INF"}},
					model.EnumValue{Value: "50ohm", Token: "FIFTY", Aliases: []string{"50"}},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":output{ch}:impedance?",
				SetCommand:  ":output{ch}:impedance %s",
				Description: "Load impedance the amplitude calibration assumes.",
			},
		},
	}
}

// SourceGroup declares the per-channel waveform facet.
func SourceGroup() model.GroupDecl {
	return model.GroupDecl{
		Name:    "source",
		Indexed: true,
		Count:   2,
		Attributes: []model.AttributeDescriptor{
			{
				Name: "function",
				Domain: model.Enum(
					model.EnumValue{Value: "sine", Token: "SINusoid", Aliases: []string{"SIN"}},
					model.EnumValue{Value: "square", Token: "SQUare", Aliases: []string{"SQU"}},
					model.EnumValue{Value: "ramp", Token: "RAMP"},
					model.EnumValue{Value: "pulse", Token: "PULSe", Aliases: []string{"PULS"}},
					model.EnumValue{Value: "noise", Token: "NOISe", Aliases: []string{"NOIS"}},
					model.EnumValue{Value: "dc", Token: "DC"},
					model.EnumValue{Value: "user", Token: "USER"},
				),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:function?",
				SetCommand:  ":source{ch}:function %s",
				Description: "Standard waveform shape the channel produces.",
			},
			{
				Name:        "frequency",
				Domain:      model.Numeric(1e-6, 350e6, "Hz"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:frequency?",
				SetCommand:  ":source{ch}:frequency %s",
				MayClamp:    true,
				Description: "Waveform frequency. Upper limit depends on the selected function.",
			},
			{
				Name:        "amplitude",
				Domain:      model.Numeric(1e-3, 20, "Vpp"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:voltage?",
				SetCommand:  ":source{ch}:voltage %s",
				MayClamp:    true,
				Invalidates: []string{"source[{ch}].offset"},
				Description: "Peak-to-peak amplitude into the configured load.",
			},
			{
				Name:        "offset",
				Domain:      model.Numeric(-10, 10, "V"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:voltage:offset?",
				SetCommand:  ":source{ch}:voltage:offset %s",
				Description: "DC offset added to the waveform.",
			},
			{
				Name:        "phase",
				Domain:      model.Numeric(0, 360, "deg"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:phase?",
				SetCommand:  ":source{ch}:phase %s",
				Description: "Start phase of the waveform.",
			},
			{
				Name:        "ramp_symmetry",
				Domain:      model.Numeric(0, 100, "%"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:function:ramp:symmetry?",
				SetCommand:  ":source{ch}:function:ramp:symmetry %s",
				Description: "Rising-edge fraction of a ramp waveform.",
			},
			{
				Name:        "duty_cycle",
				Domain:      model.Numeric(0, 100, "%"),
				Access:      model.AccessRead | model.AccessWrite,
				GetCommand:  ":source{ch}:pulse:dcycle?",
				SetCommand:  ":source{ch}:pulse:dcycle %s",
				MayClamp:    true,
				Description: "High-time fraction of a pulse waveform. The instrument clamps to the edge-time limits.",
			},
		},
		Composites: []model.CompositeDecl{
			{
				// One-shot waveform shorthand, e.g.
				// Invoke("apply", "sinusoid 1e3,2.5,0").
				Name:    "apply",
				Command: ":source{ch}:apply:%s",
				Invalidates: []string{
					"source[{ch}].function",
					"source[{ch}].frequency",
					"source[{ch}].amplitude",
					"source[{ch}].offset",
				},
			},
		},
	}
}

// FgenClass composes the function generator capability groups. No setup
// passthrough is declared, so setup save and restore go through *LRN?.
func FgenClass() model.ClassDecl {
	return model.ClassDecl{
		Name: "fgen",
		Groups: []model.GroupDecl{
			OutputGroup(),
			SourceGroup(),
		},
	}
}
