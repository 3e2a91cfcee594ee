package sensormux

import (
	"io"
	"time"
)

// MockSensorPort replays canned bridge output and records whatever
// commands are written back. Dev mode and the package tests use it in
// place of a serial gateway.
type MockSensorPort struct {
	ReadData    []byte        // remaining bridge output, drained by Read
	ReadDelay   time.Duration // simulated gateway latency per Read
	WrittenData []byte        // commands accumulated by Write
	WriteErr    error         // injected fault for command writes
	Closed      bool
}

func (m *MockSensorPort) Read(p []byte) (int, error) {
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}
	if m.Closed || len(m.ReadData) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockSensorPort) Write(p []byte) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockSensorPort) Close() error {
	m.Closed = true
	return nil
}

// NewMockFeed wraps a mock port preloaded with fixture lines, one reading
// per line in the bridge format.
func NewMockFeed(fixture []byte) *SensorMux[*MockSensorPort] {
	return NewSensorMux[*MockSensorPort](&MockSensorPort{ReadData: fixture})
}
