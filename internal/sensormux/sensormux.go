// Package sensormux multiplexes a serial-attached parking-sensor bridge:
// the bridge emits one line per proximity reading, and multiple consumers
// subscribe to the line stream.
package sensormux

import (
	"bufio"
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"tailscale.com/tsweb"

	"github.com/campus-data/parkmap/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("failed to write to sensor port")

// SensorMux fans lines read from a single sensor port out to any number of
// subscribers.
type SensorMux[T SensorPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// SensorFeed is the interface consumed by the server loop; satisfied by
// both the real serial mux and the mock.
type SensorFeed interface {
	// Subscribe creates a new channel receiving reading lines. The returned
	// ID identifies the channel for Unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the subscriber set.
	Unsubscribe(string)
	// SendCommand writes a raw command line to the bridge.
	SendCommand(string) error
	// Monitor reads lines from the port and fans them out until the context
	// is cancelled or the port drains.
	Monitor(context.Context) error
	// Close closes all subscriber channels and the port.
	Close() error

	// AttachAdminRoutes mounts debug endpoints under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// NewSensorMux wraps an open port.
func NewSensorMux[T SensorPorter](port T) *SensorMux[T] {
	return &SensorMux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (s *SensorMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

func (s *SensorMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// SendCommand sends a command line to the bridge.
func (s *SensorMux[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads reading lines from the port and sends them to subscribers.
// Slow subscribers are skipped rather than blocking the loop.
func (s *SensorMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// can await lines and context cancellation at the same time.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}

			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			s.subscriberMu.Lock()
			for id, ch := range s.subscribers {
				select {
				case ch <- line:
				default:
					// skip a full channel so one slow consumer cannot stall the feed
					monitoring.Logf("dropping reading for slow subscriber %s", id)
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

func (s *SensorMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}

// AttachAdminRoutes mounts a subscriber-count status endpoint under
// /debug/.
func (s *SensorMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.Handle("sensor-status", "Sensor feed status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.subscriberMu.Lock()
		count := len(s.subscribers)
		s.subscriberMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"subscribers": count,
		})
	}))
}
