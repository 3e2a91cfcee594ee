package sensormux

import (
	"fmt"

	"go.bug.st/serial"
)

// NewSerialFeed opens the sensor gateway at path and wraps it in a mux.
// The gateways ship fixed at 9600 8N1.
func NewSerialFeed(path string) (*SensorMux[serial.Port], error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor gateway %s: %w", path, err)
	}
	return NewSensorMux[serial.Port](port), nil
}
