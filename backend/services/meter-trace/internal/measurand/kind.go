package measurand

import "ocppmeter/backend/services/meter-trace/internal/ocpp/protocol"

// Kind is the closed set of measurands that map onto channels.
type Kind int

const (
	KindOther Kind = iota
	KindCurrentImport
	KindCurrentOffered
	KindPowerOffered
	KindPowerActiveImport
	KindVoltage
)

// Phase is the closed set of phases that map onto channels.
type Phase int

const (
	PhaseOther Phase = iota
	PhaseL1
	PhaseL2
	PhaseL3
)

// KindOf classifies an OCPP measurand string. Absent and unmapped measurands are KindOther.
func KindOf(measurand string) Kind {
	switch measurand {
	case protocol.MeasurandCurrentImport:
		return KindCurrentImport
	case protocol.MeasurandCurrentOffered:
		return KindCurrentOffered
	case protocol.MeasurandPowerOffered:
		return KindPowerOffered
	case protocol.MeasurandPowerActiveImport:
		return KindPowerActiveImport
	case protocol.MeasurandVoltage:
		return KindVoltage
	default:
		return KindOther
	}
}

// PhaseOf classifies an OCPP phase string. Neutral and line-to-line phases are PhaseOther.
func PhaseOf(phase string) Phase {
	switch phase {
	case protocol.PhaseL1:
		return PhaseL1
	case protocol.PhaseL2:
		return PhaseL2
	case protocol.PhaseL3:
		return PhaseL3
	default:
		return PhaseOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindCurrentImport:
		return protocol.MeasurandCurrentImport
	case KindCurrentOffered:
		return protocol.MeasurandCurrentOffered
	case KindPowerOffered:
		return protocol.MeasurandPowerOffered
	case KindPowerActiveImport:
		return protocol.MeasurandPowerActiveImport
	case KindVoltage:
		return protocol.MeasurandVoltage
	default:
		return "Other"
	}
}
