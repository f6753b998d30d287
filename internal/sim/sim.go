package sim

import (
	"context"
	"io"

	"github.com/d3s-trento/mspsim/internal/lib"
	"github.com/d3s-trento/mspsim/internal/log"
	"github.com/d3s-trento/mspsim/internal/sim/components/bus"
	"github.com/d3s-trento/mspsim/internal/sim/components/memory"
	"github.com/d3s-trento/mspsim/internal/sim/components/scheduler"
	"github.com/d3s-trento/mspsim/internal/sim/components/sfr"
	"github.com/d3s-trento/mspsim/internal/sim/components/terminal"
	"github.com/d3s-trento/mspsim/internal/sim/components/usart"
)

const (
	// MSP430F1xx style defaults: 32 kHz watch crystal and the calibrated
	// DCO feeding SMCLK.
	DEFAULT_ACLK_FRQ  = 32768
	DEFAULT_SMCLK_FRQ = 2457600

	// SMCLK / 21 is the closest divisor to 115200 baud.
	DEFAULT_DIVISOR = 21

	// Cycles advanced per loop iteration, and how often the host side
	// (terminal, ctx) gets a look in.
	stepCycles    = 4
	pollInterval  = 1024
	txQueueLength = 512
)

type sim struct {
	scheduler *scheduler.Scheduler
	sfr       *sfr.SFR
	usart0    *usart.USART
	usart1    *usart.USART
	memory    *memory.Memory
	bus       *bus.Bus
	terminal  *terminal.Terminal

	aclkFrq  int
	smclkFrq int
	divisor  int
	banner   string
	limit    uint64

	terminalOptions []terminal.Option

	// Firmware stand-in state: bytes waiting to be pushed out through
	// UTXBUF, and the last vector reported pending.
	txQueue    lib.FIFO[uint8]
	lastVector int
}

type Option func(*sim)

func WithACLKFrq(frq int) Option {
	return func(s *sim) {
		s.aclkFrq = frq
	}
}

func WithSMCLKFrq(frq int) Option {
	return func(s *sim) {
		s.smclkFrq = frq
	}
}

func WithDivisor(div int) Option {
	return func(s *sim) {
		s.divisor = div
	}
}

func WithBanner(banner string) Option {
	return func(s *sim) {
		s.banner = banner
	}
}

// WithCycleLimit stops the simulation once the counter passes the given
// cycle. Zero means run until cancelled.
func WithCycleLimit(cycles uint64) Option {
	return func(s *sim) {
		s.limit = cycles
	}
}

func WithInteractive() Option {
	return func(s *sim) {
		s.terminalOptions = append(s.terminalOptions, terminal.WithInteractive())
	}
}

func WithInput(r io.Reader) Option {
	return func(s *sim) {
		s.terminalOptions = append(s.terminalOptions, terminal.WithReader(r))
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *sim) {
		s.terminalOptions = append(s.terminalOptions, terminal.WithWriter(w))
	}
}

func build(options ...Option) *sim {
	s := &sim{
		scheduler:  &scheduler.Scheduler{},
		sfr:        &sfr.SFR{},
		usart0:     &usart.USART{},
		usart1:     &usart.USART{},
		memory:     &memory.Memory{},
		bus:        &bus.Bus{},
		terminal:   &terminal.Terminal{},
		aclkFrq:    DEFAULT_ACLK_FRQ,
		smclkFrq:   DEFAULT_SMCLK_FRQ,
		divisor:    DEFAULT_DIVISOR,
		lastVector: -1,
	}

	for _, o := range options {
		o(s)
	}

	s.sfr.Init()
	s.memory.Init()

	s.usart0.SFR = s.sfr
	s.usart0.Scheduler = s.scheduler
	s.usart0.Listener = s.terminal
	s.usart0.ACLKFrq = s.aclkFrq
	s.usart0.SMCLKFrq = s.smclkFrq
	s.usart1.SFR = s.sfr
	s.usart1.Scheduler = s.scheduler
	s.usart1.ACLKFrq = s.aclkFrq
	s.usart1.SMCLKFrq = s.smclkFrq

	s.usart0.Init(0)
	s.usart1.Init(1)

	s.sfr.RegisterModule(0, usart.USART0_TX_BIT, s.usart0, usart.USART0_TX_VEC)
	s.sfr.RegisterModule(0, usart.USART0_RX_BIT, s.usart0, usart.USART0_RX_VEC)
	s.sfr.RegisterModule(1, usart.USART1_TX_BIT, s.usart1, usart.USART1_TX_VEC)
	s.sfr.RegisterModule(1, usart.USART1_RX_BIT, s.usart1, usart.USART1_RX_VEC)

	s.bus.SFR = s.sfr
	s.bus.USART0 = s.usart0
	s.bus.USART1 = s.usart1
	s.bus.Memory = s.memory

	s.terminal.USART = s.usart0
	s.terminal.Init(s.terminalOptions...)

	s.txQueue.Init(txQueueLength)

	return s
}

// setup plays the role of firmware boot code: enable the unit, pick SMCLK,
// program the divisor, queue the banner.
func (s *sim) setup() {
	now := s.scheduler.Cycles()

	enable := uint8(1<<usart.USART0_TX_BIT | 1<<usart.USART0_RX_BIT)

	s.bus.Write(sfr.ME1, enable, now)
	s.bus.Write(sfr.IE1, enable, now)

	s.bus.Write(usart.USART0_BASE+usart.UCTL, 0x00, now)
	s.bus.Write(usart.USART0_BASE+usart.UTCTL, 0x20, now)
	s.bus.Write(usart.USART0_BASE+usart.UBR0, uint8(s.divisor&0xFF), now)
	s.bus.Write(usart.USART0_BASE+usart.UBR1, uint8(s.divisor>>8), now)

	for _, b := range []byte(s.banner) {
		s.txQueue.Push(b)
	}
}

// step advances the clock and runs one firmware polling pass: echo any
// received byte, feed the transmitter when its buffer is free.
func (s *sim) step() {
	s.scheduler.Tick(stepCycles)

	now := s.scheduler.Cycles()
	ifg := s.bus.Read(sfr.IFG1, now)

	if ifg&usart.URXIFG0 != 0 {
		b := s.bus.Read(usart.USART0_BASE+usart.URXBUF, now)
		s.txQueue.Push(b)
	}

	if ifg&usart.UTXIFG0 != 0 {
		if b, ok := s.txQueue.Pop(); ok {
			s.bus.Write(usart.USART0_BASE+usart.UTXBUF, b, now)
		}
	}

	if vector, ok := s.sfr.PendingVector(); ok && vector != s.lastVector {
		log.Debug("[sim] pending interrupt vector %d", vector)
		s.lastVector = vector
	} else if !ok {
		s.lastVector = -1
	}
}

func Run(ctx context.Context, options ...Option) error {
	s := build(options...)
	defer s.terminal.Close()

	s.setup()

	for i := 0; ; i++ {
		s.step()

		if i%pollInterval == 0 {
			s.terminal.Poll()

			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}

		if s.limit > 0 && s.scheduler.Cycles() >= s.limit {
			return nil
		}
	}
}
