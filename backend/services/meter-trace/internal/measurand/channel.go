package measurand

// Channel is a slash delimited series name.
type Channel string

const (
	CurrentImportL1     Channel = "current/import/L1"
	CurrentImportL2     Channel = "current/import/L2"
	CurrentOffered      Channel = "current/offered"
	PowerOffered        Channel = "power/offered"
	VoltageL1           Channel = "voltage/L1"
	VoltageL2           Channel = "voltage/L2"
	VoltageL3           Channel = "voltage/L3"
	PowerActiveImportL1 Channel = "power/active/import/L1"
	PowerActiveImportL2 Channel = "power/active/import/L2"
	PowerActiveImportL3 Channel = "power/active/import/L3"

	// PowerActiveImportSum is derived from the three phase channels.
	PowerActiveImportSum Channel = "power/active/import/sum"
)

// Channels lists every channel of a Bundle in emission order.
var Channels = []Channel{
	CurrentImportL1,
	CurrentImportL2,
	CurrentOffered,
	PowerOffered,
	VoltageL1,
	VoltageL2,
	VoltageL3,
	PowerActiveImportL1,
	PowerActiveImportL2,
	PowerActiveImportL3,
	PowerActiveImportSum,
}

// Route returns the channel a (kind, phase) pair writes to.
// ok is false for pairs that are ignored.
func Route(kind Kind, phase Phase) (Channel, bool) {
	switch kind {
	case KindCurrentImport:
		switch phase {
		case PhaseL1:
			return CurrentImportL1, true
		case PhaseL2:
			return CurrentImportL2, true
		case PhaseL3, PhaseOther:
			return "", false
		}
	case KindCurrentOffered:
		return CurrentOffered, true
	case KindPowerOffered:
		return PowerOffered, true
	case KindPowerActiveImport:
		return phaseChannel(phase, PowerActiveImportL1, PowerActiveImportL2, PowerActiveImportL3)
	case KindVoltage:
		return phaseChannel(phase, VoltageL1, VoltageL2, VoltageL3)
	case KindOther:
		return "", false
	}
	return "", false
}

func phaseChannel(phase Phase, l1, l2, l3 Channel) (Channel, bool) {
	switch phase {
	case PhaseL1:
		return l1, true
	case PhaseL2:
		return l2, true
	case PhaseL3:
		return l3, true
	case PhaseOther:
		return "", false
	}
	return "", false
}
