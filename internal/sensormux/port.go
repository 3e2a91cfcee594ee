package sensormux

import "io"

// SensorPorter is what the mux needs from a bridge attachment: a line
// stream to read, a command sink to write, and a Close that ends both.
type SensorPorter interface {
	io.ReadWriter
	io.Closer
}
