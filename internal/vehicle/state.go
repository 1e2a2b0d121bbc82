package vehicle

// EngineState is the running state of the engine.
type EngineState string

// Engine states.
const (
	EngineOff     EngineState = "off"
	EngineRunning EngineState = "running"
)

// BrakeState is the position of the brakes.
type BrakeState string

// Brake states.
const (
	BrakeApplied  BrakeState = "applied"
	BrakeReleased BrakeState = "released"
)

// LightState is the headlight switch position.
type LightState string

// Light states.
const (
	LightsOff LightState = "off"
	LightsOn  LightState = "on"
)

// BatteryStatus reports whether the alternator is charging the battery.
type BatteryStatus string

// Battery statuses.
const (
	BatteryCharging    BatteryStatus = "charging"
	BatteryDischarging BatteryStatus = "discharging"
)

// Battery groups the battery readings.
type Battery struct {
	Voltage float64       `json:"voltage"`
	Status  BatteryStatus `json:"status"`
}

// State is a snapshot of the simulated vehicle.
type State struct {
	Engine      EngineState `json:"engine"`
	Brake       BrakeState  `json:"brake"`
	RPM         int         `json:"rpm"`
	Temperature float64     `json:"temperature"`
	Speed       int         `json:"speed"`
	FuelLevel   float64     `json:"fuel_level"`
	Lights      LightState  `json:"lights"`
	DoorsLocked bool        `json:"doors_locked"`
	Battery     Battery     `json:"battery"`
	SpeedLimit  int         `json:"speed_limit"`
}

// Metrics returns the numeric readings of the snapshot keyed by field name.
func (s State) Metrics() map[string]float64 {
	return map[string]float64{
		"rpm":         float64(s.RPM),
		"speed":       float64(s.Speed),
		"temperature": s.Temperature,
		"fuel_level":  s.FuelLevel,
		"voltage":     s.Battery.Voltage,
		"speed_limit": float64(s.SpeedLimit),
	}
}

// InitialState is the parked vehicle every model starts from.
func InitialState() State {
	return State{
		Engine:      EngineOff,
		Brake:       BrakeApplied,
		RPM:         0,
		Temperature: 20.0,
		Speed:       0,
		FuelLevel:   75.0,
		Lights:      LightsOff,
		DoorsLocked: true,
		Battery:     Battery{Voltage: 12.6, Status: BatteryDischarging},
		SpeedLimit:  DefaultPolicy().MaxSpeed,
	}
}

// Policy holds the evolution constants.
type Policy struct {
	IdleRPM       int
	MaxRPM        int
	RPMStep       int
	MaxSpeed      int
	SpeedStep     int
	CoastStep     int
	FuelDecrement float64
	VoltageMin    float64
	VoltageMax    float64
	TempMin       float64
	TempMax       float64
}

// DefaultPolicy returns the stock evolution constants.
func DefaultPolicy() Policy {
	return Policy{
		IdleRPM:       800,
		MaxRPM:        6500,
		RPMStep:       250,
		MaxSpeed:      180,
		SpeedStep:     5,
		CoastStep:     2,
		FuelDecrement: 0.05,
		VoltageMin:    13.8,
		VoltageMax:    14.4,
		TempMin:       88,
		TempMax:       96,
	}
}
