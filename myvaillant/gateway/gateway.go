package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/asnowfix/myvaillant/pkg/vaillant"
	"github.com/go-logr/logr"
)

const SYSTEM_NOT_FOUND = "System not found!"

// API is the part of the myVAILLANT client the gateway needs
type API interface {
	System(ctx context.Context, id string) (*vaillant.System, error)
	SetDHWOperationMode(ctx context.Context, dhw *vaillant.DomesticHotWater, mode vaillant.DHWOperationMode) error
	SetDHWTemperature(ctx context.Context, dhw *vaillant.DomesticHotWater, temperature int) error
	QuickVetoZone(ctx context.Context, zone *vaillant.Zone, temperature float64, durationHours float64, defaultDuration float64) error
	CancelQuickVetoZone(ctx context.Context, zone *vaillant.Zone) error
}

// Session is an open API session that must be closed
type Session interface {
	API
	Close() error
}

// Dialer opens a session (i.e. logs in)
type Dialer func(ctx context.Context) (Session, error)

// Request is one invocation: which system, which command, and the command's
// argument as returned by ParseArgument
type Request struct {
	SystemID string
	Command  Command
	Arg      any
}

// StatusResult is the output of the status command. water_presure is spelled the way
// consumers of this output expect it.
type StatusResult struct {
	FlowTemperature    *float64 `json:"flow_temperature"`
	WaterPressure      *float64 `json:"water_presure"`
	OutsideTemperature *float64 `json:"outside_temperature"`
	TankTemperature    *float64 `json:"tank_temperature"`
}

// Ack is the output of a command changing something
type Ack struct {
	Ack   bool    `json:"ack"`
	Cmd   Command `json:"cmd"`
	Arg   any     `json:"arg"`
	Error string  `json:"error,omitempty"`
}

// Failure is the output when no command could be attempted
type Failure struct {
	Ack   bool   `json:"ack"`
	Error string `json:"error"`
}

// Call opens a session, runs one command and closes the session on every path.
// Only a failure to open the session is returned as an error; everything after
// that is reported in the result.
func Call(ctx context.Context, dial Dialer, req Request) (any, error) {
	log := logr.FromContextOrDiscard(ctx)

	session, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Error(err, "Failed to close session")
		}
	}()

	return Dispatch(ctx, session, req), nil
}

// Dispatch looks the system up and runs the command against it. It always
// returns one of StatusResult, Ack or Failure. An empty SystemID selects the first
// home's system.
func Dispatch(ctx context.Context, api API, req Request) any {
	log := logr.FromContextOrDiscard(ctx)
	systemID, cmd, arg := req.SystemID, req.Command, req.Arg

	system, err := api.System(ctx, systemID)
	if err != nil {
		log.Error(err, "System lookup failed", "system_id", systemID)
		return Failure{Ack: false, Error: err.Error()}
	}
	if system == nil {
		log.Info("System not found", "system_id", systemID)
		return Failure{Ack: false, Error: SYSTEM_NOT_FOUND}
	}
	log.V(1).Info("Dispatching", "system_id", system.ID, "cmd", cmd, "arg", arg)

	switch cmd {
	case Status:
		return status(system)
	case DHWMode:
		return dhwMode(ctx, api, system, arg)
	case DHWTemperature:
		return dhwTemperature(ctx, api, system, arg)
	case FlowTemperature:
		return flowTemperature(ctx, api, system, arg)
	}
	return Failure{Ack: false, Error: fmt.Sprintf("unknown command %q", cmd)}
}

func status(system *vaillant.System) any {
	var s StatusResult
	s.WaterPressure = system.WaterPressure
	s.OutsideTemperature = system.OutdoorTemperature
	if len(system.Circuits) > 0 {
		s.FlowTemperature = system.Circuits[0].CurrentCircuitFlowTemperature
	}
	if len(system.DomesticHotWater) > 0 {
		s.TankTemperature = system.DomesticHotWater[0].CurrentDHWTemperature
	}
	return s
}

var errNoDHW = errors.New("system has no domestic hot water unit")

var errNoZone = errors.New("system has no zone")

func dhwMode(ctx context.Context, api API, system *vaillant.System, arg any) any {
	on, ok := arg.(bool)
	if !ok {
		return badArgument(DHWMode, arg)
	}
	if len(system.DomesticHotWater) == 0 {
		return Failure{Ack: false, Error: errNoDHW.Error()}
	}
	dhw := system.DomesticHotWater[0]

	mode := vaillant.DHWModeOff
	if on {
		mode = vaillant.DHWModeDay
	}
	if err := api.SetDHWOperationMode(ctx, dhw, mode); err != nil {
		return failed(ctx, DHWMode, on, err)
	}
	return Ack{Ack: dhw.OperationModeDHW == mode, Cmd: DHWMode, Arg: on}
}

func dhwTemperature(ctx context.Context, api API, system *vaillant.System, arg any) any {
	temperature, ok := arg.(int)
	if !ok {
		return badArgument(DHWTemperature, arg)
	}
	if len(system.DomesticHotWater) == 0 {
		return Failure{Ack: false, Error: errNoDHW.Error()}
	}
	dhw := system.DomesticHotWater[0]

	if err := api.SetDHWTemperature(ctx, dhw, temperature); err != nil {
		return failed(ctx, DHWTemperature, temperature, err)
	}
	ack := dhw.TappingSetpoint != nil && *dhw.TappingSetpoint == float64(temperature)
	return Ack{Ack: ack, Cmd: DHWTemperature, Arg: temperature}
}

func flowTemperature(ctx context.Context, api API, system *vaillant.System, arg any) any {
	temperature, ok := arg.(float64)
	if !ok {
		return badArgument(FlowTemperature, arg)
	}
	if len(system.Zones) == 0 {
		return Failure{Ack: false, Error: errNoZone.Error()}
	}
	zone := system.Zones[0]

	if temperature > FLOW_TEMPERATURE_OFF {
		if err := api.QuickVetoZone(ctx, zone, temperature, QUICK_VETO_HOURS, QUICK_VETO_HOURS); err != nil {
			return failed(ctx, FlowTemperature, temperature, err)
		}
		ack := zone.DesiredRoomTemperatureSetpoint != nil &&
			*zone.DesiredRoomTemperatureSetpoint == temperature &&
			zone.CurrentSpecialFunction == vaillant.ZoneFunctionQuickVeto
		return Ack{Ack: ack, Cmd: FlowTemperature, Arg: temperature}
	}

	if err := api.CancelQuickVetoZone(ctx, zone); err != nil {
		return failed(ctx, FlowTemperature, temperature, err)
	}
	return Ack{Ack: zone.CurrentSpecialFunction == vaillant.ZoneFunctionNone, Cmd: FlowTemperature, Arg: temperature}
}

func failed(ctx context.Context, cmd Command, arg any, err error) Ack {
	logr.FromContextOrDiscard(ctx).Error(err, "Command failed", "cmd", cmd, "arg", arg)
	return Ack{Ack: false, Cmd: cmd, Arg: arg, Error: err.Error()}
}

func badArgument(cmd Command, arg any) Ack {
	return Ack{Ack: false, Cmd: cmd, Arg: arg, Error: fmt.Sprintf("invalid argument %v (%T) for %s", arg, arg, cmd)}
}

// MarshalJSON prints whole temperatures as 21.0 rather than 21
func (s StatusResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FlowTemperature    json.RawMessage `json:"flow_temperature"`
		WaterPressure      json.RawMessage `json:"water_presure"`
		OutsideTemperature json.RawMessage `json:"outside_temperature"`
		TankTemperature    json.RawMessage `json:"tank_temperature"`
	}{
		floatJSON(s.FlowTemperature),
		floatJSON(s.WaterPressure),
		floatJSON(s.OutsideTemperature),
		floatJSON(s.TankTemperature),
	})
}

// MarshalJSON keeps a float argument a float (21.0), whatever its value
func (a Ack) MarshalJSON() ([]byte, error) {
	arg := a.Arg
	if f, ok := arg.(float64); ok {
		arg = floatJSON(&f)
	}
	return json.Marshal(struct {
		Ack   bool    `json:"ack"`
		Cmd   Command `json:"cmd"`
		Arg   any     `json:"arg"`
		Error string  `json:"error,omitempty"`
	}{a.Ack, a.Cmd, arg, a.Error})
}

func floatJSON(f *float64) json.RawMessage {
	if f == nil {
		return json.RawMessage("null")
	}
	s := strconv.FormatFloat(*f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return json.RawMessage(s)
}

// Encode renders a result the way it is printed: status indented by two spaces,
// everything else on one line
func Encode(result any) ([]byte, error) {
	if s, ok := result.(StatusResult); ok {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(result)
}
