package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-tty"

	"github.com/d3s-trento/mspsim/internal/lib"
	"github.com/d3s-trento/mspsim/internal/log"
	"github.com/d3s-trento/mspsim/internal/sim/components/usart"
)

const inputBufferSize = 256

type receiver interface {
	ByteReceived(b int)
	IsReceiveFlagCleared() bool
}

// Terminal is the serial line endpoint: bytes shifted out of the unit are
// printed, host input is delivered into the receive path one byte at a
// time. A byte is only put on the line once the previous one has been read
// out of the receive buffer; anything typed in the meantime queues up.
type Terminal struct {
	USART receiver

	input   chan uint8
	pending lib.FIFO[uint8]

	tty    *tty.TTY
	reader io.Reader
	out    io.Writer
}

type Option func(*Terminal)

// WithInteractive reads raw keystrokes from the controlling terminal.
func WithInteractive() Option {
	return func(t *Terminal) {
		t.tty = lib.Must(tty.Open())
	}
}

func WithReader(r io.Reader) Option {
	return func(t *Terminal) {
		t.reader = r
	}
}

func WithWriter(w io.Writer) Option {
	return func(t *Terminal) {
		t.out = w
	}
}

func (t *Terminal) Init(options ...Option) {
	t.input = make(chan uint8, inputBufferSize)
	t.pending.Init(inputBufferSize)
	t.out = os.Stdout

	for _, o := range options {
		o(t)
	}

	go t.readLoop()
}

func (t *Terminal) readLoop() {
	defer close(t.input)

	if t.tty != nil {
		for {
			r, err := t.tty.ReadRune()
			if err != nil {
				log.Debug("[terminal] tty closed: %v", err)
				return
			}

			t.input <- uint8(r)
		}
	}

	if t.reader == nil {
		return
	}

	br := bufio.NewReader(t.reader)

	for {
		b, err := br.ReadByte()
		if err != nil {
			log.Debug("[terminal] input closed: %v", err)
			return
		}

		t.input <- b
	}
}

// Poll drains host input and, if the line is free, delivers the next byte.
// Called from the simulation loop.
func (t *Terminal) Poll() {
	for {
		select {
		case b, ok := <-t.input:
			if !ok {
				t.deliverNext()
				return
			}

			t.pending.Push(b)
		default:
			t.deliverNext()
			return
		}
	}
}

func (t *Terminal) deliverNext() {
	if !t.USART.IsReceiveFlagCleared() {
		return
	}

	if b, ok := t.pending.Pop(); ok {
		t.USART.ByteReceived(int(b))
	}
}

// DataReceived implements usart.Listener: a byte has been shifted out on
// the line.
func (t *Terminal) DataReceived(u *usart.USART, data uint8) {
	fmt.Fprint(t.out, string(rune(data)))
}

// StateChanged implements usart.Listener: once the receive buffer has been
// read, the next queued byte may go on the line.
func (t *Terminal) StateChanged(u *usart.USART, state usart.ListenerState) {
	if state == usart.RXFlagCleared {
		t.deliverNext()
	}
}

func (t *Terminal) Close() {
	if t.tty != nil {
		if err := t.tty.Close(); err != nil {
			log.Debug("[terminal] tty close: %v", err)
		}
	}
}
