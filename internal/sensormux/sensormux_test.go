package sensormux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{"full line", "SP-001,0,2023-01-05 08:00:00", Reading{SpotID: "SP-001", Proximity: "0", Timestamp: "2023-01-05 08:00:00"}, false},
		{"no timestamp", "SP-002,1", Reading{SpotID: "SP-002", Proximity: "1"}, false},
		{"padded fields", " SP-003 , 0.5 ", Reading{SpotID: "SP-003", Proximity: "0.5"}, false},
		{"empty proximity", "SP-004,", Reading{SpotID: "SP-004", Proximity: ""}, false},
		{"comment line", "# bridge boot v1.2", Reading{}, true},
		{"empty line", "", Reading{}, true},
		{"single field", "SP-005", Reading{}, true},
		{"empty spot id", ",1", Reading{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReading(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonitorFansOutLines(t *testing.T) {
	mux := NewMockFeed([]byte("SP-001,0\nSP-002,1\n"))

	id, ch := mux.Subscribe()
	defer mux.Unsubscribe(id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	var lines []string
	for len(lines) < 2 {
		select {
		case line := <-ch:
			lines = append(lines, line)
		case <-ctx.Done():
			t.Fatalf("timed out with lines %v", lines)
		}
	}
	assert.Equal(t, []string{"SP-001,0", "SP-002,1"}, lines)

	// mock port drains to EOF, so Monitor returns nil
	require.NoError(t, <-done)
}

func TestMonitorContextCancel(t *testing.T) {
	mock := &MockSensorPort{ReadDelay: 50 * time.Millisecond, ReadData: []byte("SP-001,0\n")}
	mux := NewSensorMux[*MockSensorPort](mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}

func TestSendCommandAppendsNewline(t *testing.T) {
	mock := &MockSensorPort{}
	mux := NewSensorMux[*MockSensorPort](mock)

	require.NoError(t, mux.SendCommand("PING"))
	assert.Equal(t, "PING\n", string(mock.WrittenData))
}

func TestSendCommandWriteFailure(t *testing.T) {
	mock := &MockSensorPort{WriteErr: errors.New("gateway detached")}
	mux := NewSensorMux[*MockSensorPort](mock)

	assert.Error(t, mux.SendCommand("PING"))
}

func TestCloseClosesSubscribers(t *testing.T) {
	mux := NewMockFeed(nil)
	_, ch := mux.Subscribe()

	require.NoError(t, mux.Close())

	_, open := <-ch
	assert.False(t, open, "subscriber channel should be closed")
}

func TestUnsubscribeUnknownIDIsNoop(t *testing.T) {
	mux := NewMockFeed(nil)
	mux.Unsubscribe("does-not-exist")
}
