package emitter

import "ocppmeter/backend/services/meter-trace/internal/measurand"

// Series carries display metadata for one channel.
type Series struct {
	Channel string   `json:"channel"`
	Name    string   `json:"name"`
	Color   [3]uint8 `json:"color"`
	Width   float32  `json:"width"`
}

var defaultSeries = map[measurand.Channel]Series{
	measurand.CurrentImportL1:      {Name: "Current.Import(L1)", Color: [3]uint8{255, 0, 0}, Width: 2},
	measurand.CurrentImportL2:      {Name: "Current.Import(L2)", Color: [3]uint8{0, 160, 0}, Width: 2},
	measurand.CurrentOffered:       {Name: "Current.Offered", Color: [3]uint8{255, 165, 0}, Width: 1},
	measurand.PowerOffered:         {Name: "Power.Offered", Color: [3]uint8{128, 0, 128}, Width: 1},
	measurand.VoltageL1:            {Name: "Voltage(L1)", Color: [3]uint8{255, 0, 0}, Width: 1},
	measurand.VoltageL2:            {Name: "Voltage(L2)", Color: [3]uint8{0, 160, 0}, Width: 1},
	measurand.VoltageL3:            {Name: "Voltage(L3)", Color: [3]uint8{0, 0, 255}, Width: 1},
	measurand.PowerActiveImportL1:  {Name: "Power.Active.Import(L1)", Color: [3]uint8{255, 0, 0}, Width: 2},
	measurand.PowerActiveImportL2:  {Name: "Power.Active.Import(L2)", Color: [3]uint8{0, 160, 0}, Width: 2},
	measurand.PowerActiveImportL3:  {Name: "Power.Active.Import(L3)", Color: [3]uint8{0, 0, 255}, Width: 2},
	measurand.PowerActiveImportSum: {Name: "Power.Active.Import(sum)", Color: [3]uint8{0, 0, 0}, Width: 3},
}

// DefaultSeries returns the display metadata of every channel in emission order.
func DefaultSeries() []Series {
	out := make([]Series, 0, len(measurand.Channels))
	for _, ch := range measurand.Channels {
		s := defaultSeries[ch]
		s.Channel = string(ch)
		out = append(out, s)
	}
	return out
}
