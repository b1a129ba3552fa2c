package vaillant

// DHWOperationMode is the operation mode of a domestic hot water unit.
// VRC700 controllers use DAY/OFF/AUTO, sensoNET (TLI) ones MANUAL/TIME_CONTROLLED/OFF.
type DHWOperationMode string

const (
	DHWModeOff            DHWOperationMode = "OFF"
	DHWModeDay            DHWOperationMode = "DAY"
	DHWModeAuto           DHWOperationMode = "AUTO"
	DHWModeManual         DHWOperationMode = "MANUAL"
	DHWModeTimeControlled DHWOperationMode = "TIME_CONTROLLED"
)

func (m DHWOperationMode) String() string {
	return string(m)
}

// ZoneSpecialFunction is what currently overrides the zone's time program, if anything
type ZoneSpecialFunction string

const (
	ZoneFunctionNone             ZoneSpecialFunction = "NONE"
	ZoneFunctionQuickVeto        ZoneSpecialFunction = "QUICK_VETO"
	ZoneFunctionHoliday          ZoneSpecialFunction = "HOLIDAY"
	ZoneFunctionSystemOff        ZoneSpecialFunction = "SYSTEM_OFF"
	ZoneFunctionVentilationBoost ZoneSpecialFunction = "VENTILATION_BOOST"
)

func (f ZoneSpecialFunction) String() string {
	return string(f)
}

type Home struct {
	SystemID     string `json:"systemId" yaml:"system_id"`
	Name         string `json:"homeName" yaml:"name"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serial_number,omitempty"`
	ProductName  string `json:"productName,omitempty" yaml:"product_name,omitempty"`
	CountryCode  string `json:"countryCode,omitempty" yaml:"country_code,omitempty"`
}

type System struct {
	ID                 string              `json:"id"`
	ControlIdentifier  string              `json:"control_identifier"`
	OutdoorTemperature *float64            `json:"outdoor_temperature"`
	WaterPressure      *float64            `json:"water_pressure"`
	Zones              []*Zone             `json:"zones"`
	Circuits           []*Circuit          `json:"circuits"`
	DomesticHotWater   []*DomesticHotWater `json:"domestic_hot_water"`
}

type Zone struct {
	SystemID                       string              `json:"system_id"`
	Index                          int                 `json:"index"`
	Name                           string              `json:"name"`
	DesiredRoomTemperatureSetpoint *float64            `json:"desired_room_temperature_setpoint"`
	CurrentRoomTemperature         *float64            `json:"current_room_temperature"`
	CurrentSpecialFunction         ZoneSpecialFunction `json:"current_special_function"`
	QuickVetoDuration              float64             `json:"quick_veto_duration,omitempty"`
}

type Circuit struct {
	SystemID                      string   `json:"system_id"`
	Index                         int      `json:"index"`
	CircuitState                  string   `json:"circuit_state"`
	CurrentCircuitFlowTemperature *float64 `json:"current_circuit_flow_temperature"`
	HeatingCurve                  *float64 `json:"heating_curve"`
}

type DomesticHotWater struct {
	SystemID               string           `json:"system_id"`
	Index                  int              `json:"index"`
	CurrentDHWTemperature  *float64         `json:"current_dhw_temperature"`
	OperationModeDHW       DHWOperationMode `json:"operation_mode_dhw"`
	TappingSetpoint        *float64         `json:"tapping_setpoint"`
	CurrentSpecialFunction string           `json:"current_special_function"`
}

// The /systems/{id}/{control} document. Zones, circuits and hot water units appear
// in several sections keyed by index and get merged into one object each.

type systemDocument struct {
	SystemID      string              `json:"systemId"`
	State         systemState         `json:"state"`
	Configuration systemConfiguration `json:"configuration"`
}

type systemState struct {
	System struct {
		OutdoorTemperature  *float64 `json:"outdoorTemperature"`
		SystemWaterPressure *float64 `json:"systemWaterPressure"`
	} `json:"system"`
	Zones            []zoneState    `json:"zones"`
	Circuits         []circuitState `json:"circuits"`
	DHW              []dhwState     `json:"dhw"`
	DomesticHotWater []dhwState     `json:"domesticHotWater"`
}

type systemConfiguration struct {
	Zones            []zoneConfiguration    `json:"zones"`
	Circuits         []circuitConfiguration `json:"circuits"`
	DHW              []dhwConfiguration     `json:"dhw"`
	DomesticHotWater []dhwConfiguration     `json:"domesticHotWater"`
}

type zoneState struct {
	Index                          int                 `json:"index"`
	DesiredRoomTemperatureSetpoint *float64            `json:"desiredRoomTemperatureSetpoint"`
	CurrentRoomTemperature         *float64            `json:"currentRoomTemperature"`
	CurrentSpecialFunction         ZoneSpecialFunction `json:"currentSpecialFunction"`
}

type zoneConfiguration struct {
	Index   int `json:"index"`
	General struct {
		Name string `json:"name"`
	} `json:"general"`
	QuickVetoDuration float64 `json:"quickVetoDuration"`
}

type circuitState struct {
	Index                         int      `json:"index"`
	CircuitState                  string   `json:"circuitState"`
	CurrentCircuitFlowTemperature *float64 `json:"currentCircuitFlowTemperature"`
}

type circuitConfiguration struct {
	Index        int      `json:"index"`
	HeatingCurve *float64 `json:"heatingCurve"`
}

type dhwState struct {
	Index                  int      `json:"index"`
	CurrentDHWTemperature  *float64 `json:"currentDhwTemperature"`
	CurrentSpecialFunction string   `json:"currentSpecialFunction"`
}

type dhwConfiguration struct {
	Index            int              `json:"index"`
	OperationModeDHW DHWOperationMode `json:"operationModeDhw"`
	TappingSetpoint  *float64         `json:"tappingSetpoint"`
}

type controlIdentifierDocument struct {
	ControlIdentifier string `json:"controlIdentifier"`
}

func (doc *systemDocument) toSystem(id, control string) *System {
	if doc.SystemID != "" {
		id = doc.SystemID
	}
	s := &System{
		ID:                 id,
		ControlIdentifier:  control,
		OutdoorTemperature: doc.State.System.OutdoorTemperature,
		WaterPressure:      doc.State.System.SystemWaterPressure,
	}

	zones := make(map[int]*Zone)
	for _, zs := range doc.State.Zones {
		z := &Zone{
			SystemID:                       id,
			Index:                          zs.Index,
			DesiredRoomTemperatureSetpoint: zs.DesiredRoomTemperatureSetpoint,
			CurrentRoomTemperature:         zs.CurrentRoomTemperature,
			CurrentSpecialFunction:         zs.CurrentSpecialFunction,
		}
		if z.CurrentSpecialFunction == "" {
			z.CurrentSpecialFunction = ZoneFunctionNone
		}
		zones[zs.Index] = z
		s.Zones = append(s.Zones, z)
	}
	for _, zc := range doc.Configuration.Zones {
		if z, ok := zones[zc.Index]; ok {
			z.Name = zc.General.Name
			z.QuickVetoDuration = zc.QuickVetoDuration
		}
	}

	circuits := make(map[int]*Circuit)
	for _, cs := range doc.State.Circuits {
		c := &Circuit{
			SystemID:                      id,
			Index:                         cs.Index,
			CircuitState:                  cs.CircuitState,
			CurrentCircuitFlowTemperature: cs.CurrentCircuitFlowTemperature,
		}
		circuits[cs.Index] = c
		s.Circuits = append(s.Circuits, c)
	}
	for _, cc := range doc.Configuration.Circuits {
		if c, ok := circuits[cc.Index]; ok {
			c.HeatingCurve = cc.HeatingCurve
		}
	}

	dhws := make(map[int]*DomesticHotWater)
	for _, ds := range append(doc.State.DomesticHotWater, doc.State.DHW...) {
		d := &DomesticHotWater{
			SystemID:               id,
			Index:                  ds.Index,
			CurrentDHWTemperature:  ds.CurrentDHWTemperature,
			CurrentSpecialFunction: ds.CurrentSpecialFunction,
		}
		dhws[ds.Index] = d
		s.DomesticHotWater = append(s.DomesticHotWater, d)
	}
	for _, dc := range append(doc.Configuration.DomesticHotWater, doc.Configuration.DHW...) {
		if d, ok := dhws[dc.Index]; ok {
			d.OperationModeDHW = dc.OperationModeDHW
			d.TappingSetpoint = dc.TappingSetpoint
		}
	}

	return s
}
