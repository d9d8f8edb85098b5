package serial

import (
	"io"
	"sync"

	"bqconsole/protocol"
)

// RxSize is the receive FIFO capacity
const RxSize = 256

// Receiver turns a blocking reader into a non-blocking byte source.
// A goroutine copies input into a FIFO; the console loop drains it
// through Buffered/ReadByte without ever blocking.
type Receiver struct {
	mu        sync.Mutex
	fifo      *protocol.FifoBuffer
	translate bool
	err       error
	done      chan struct{}
}

// NewReceiver starts reading r. With translate set, LF becomes CR so that
// line-buffered terminals end commands the way a serial terminal does.
func NewReceiver(r io.Reader, translate bool) *Receiver {
	rx := &Receiver{
		fifo:      protocol.NewFifoBuffer(RxSize),
		translate: translate,
		done:      make(chan struct{}),
	}
	go rx.run(r)
	return rx
}

func (rx *Receiver) run(r io.Reader) {
	defer close(rx.done)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			rx.push(buf[:n])
		}
		if err != nil {
			rx.mu.Lock()
			rx.err = err
			rx.mu.Unlock()
			return
		}
	}
}

func (rx *Receiver) push(p []byte) {
	if rx.translate {
		for i, b := range p {
			if b == protocol.LF {
				p[i] = protocol.CR
			}
		}
	}
	rx.mu.Lock()
	// overflow drops input, like a UART without flow control
	rx.fifo.Write(p)
	rx.mu.Unlock()
}

// Buffered returns the number of bytes waiting
func (rx *Receiver) Buffered() int {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.fifo.Available()
}

// ReadByte pops one byte; protocol.ErrFifoEmpty when nothing is waiting
func (rx *Receiver) ReadByte() (byte, error) {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.fifo.ReadByte()
}

// Err returns the error that stopped the reader, io.EOF at end of input
func (rx *Receiver) Err() error {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.err
}

// Done is closed when the reader goroutine exits
func (rx *Receiver) Done() <-chan struct{} {
	return rx.done
}
