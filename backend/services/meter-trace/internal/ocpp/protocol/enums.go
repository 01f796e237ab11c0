package protocol

// Actions handled by the decoder.
const (
	ActionMeterValues = "MeterValues"
)

// Measurand values as per OCPP 1.6 (SampledValue.measurand).
const (
	MeasurandCurrentExport              = "Current.Export"
	MeasurandCurrentImport              = "Current.Import"
	MeasurandCurrentOffered             = "Current.Offered"
	MeasurandEnergyActiveExportRegister = "Energy.Active.Export.Register"
	MeasurandEnergyActiveImportRegister = "Energy.Active.Import.Register"
	MeasurandFrequency                  = "Frequency"
	MeasurandPowerActiveExport          = "Power.Active.Export"
	MeasurandPowerActiveImport          = "Power.Active.Import"
	MeasurandPowerFactor                = "Power.Factor"
	MeasurandPowerOffered               = "Power.Offered"
	MeasurandRPM                        = "RPM"
	MeasurandSoC                        = "SoC"
	MeasurandTemperature                = "Temperature"
	MeasurandVoltage                    = "Voltage"
)

// Phase values (subset used by channel mapping).
const (
	PhaseL1   = "L1"
	PhaseL2   = "L2"
	PhaseL3   = "L3"
	PhaseN    = "N"
	PhaseL1N  = "L1-N"
	PhaseL2N  = "L2-N"
	PhaseL3N  = "L3-N"
	PhaseL1L2 = "L1-L2"
	PhaseL2L3 = "L2-L3"
	PhaseL3L1 = "L3-L1"
)
