package usart

import (
	"github.com/d3s-trento/mspsim/internal/log"
	"github.com/d3s-trento/mspsim/internal/sim/components/scheduler"
)

// Register offsets from each unit's base address.
const (
	UCTL   = 0
	UTCTL  = 1
	URCTL  = 2
	UMCTL  = 3
	UBR0   = 4
	UBR1   = 5
	URXBUF = 6
	UTXBUF = 7

	USART0_BASE = 0x70
	USART1_BASE = 0x78

	// Interrupt flag masks within the shared flag register. USART0 lives
	// in bank 0, USART1 in bank 1.
	UTXIFG0 = 0x80
	URXIFG0 = 0x40
	UTXIFG1 = 0x20
	URXIFG1 = 0x10

	USART0_TX_BIT = 7
	USART0_RX_BIT = 6
	USART1_TX_BIT = 5
	USART1_RX_BIT = 4

	USART0_TX_VEC = 8
	USART0_RX_VEC = 9
	USART1_TX_VEC = 2
	USART1_RX_VEC = 3

	// UCTL sync bit: the unit runs in SPI mode when set.
	UCTL_SYNC = 0x04

	// UTCTL bit 0: transmit shift register empty.
	UTCTL_TXEMPTY = 0x01
)

const (
	clockSMCLK = iota
	clockACLK
)

type flagRegister interface {
	SetBitIFG(bank int, bits uint8)
	ClrBitIFG(bank int, bits uint8)
	GetIFG(bank int) uint8
	IsIEBitsSet(bank int, bits uint8) bool
}

type cycleScheduler interface {
	Schedule(ev *scheduler.Event, cycle uint64)
	Cycles() uint64
}

type ListenerState int

const (
	RXFlagCleared ListenerState = iota
)

// Listener observes the serial line: DataReceived fires when a byte has
// been fully shifted out, StateChanged when the receive buffer is read.
type Listener interface {
	DataReceived(u *USART, data uint8)
	StateChanged(u *USART, state ListenerState)
}

type USART struct {
	SFR       flagRegister
	Scheduler cycleScheduler
	Listener  Listener

	ACLKFrq  int
	SMCLKFrq int

	id   int
	bank int

	utxifg uint8
	urxifg uint8
	txbit  int

	clockSource int
	baudRate    int
	tickPerByte uint64

	nextTXReady uint64
	nextTXByte  int
	txShiftReg  int
	txTrigger   scheduler.Event

	transmitting bool
	txEnabled    bool
	rxEnabled    bool
	spiMode      bool

	uctl   uint8
	utctl  uint8
	urctl  uint8
	umctl  uint8
	ubr0   uint8
	ubr1   uint8
	urxbuf uint8
	utxbuf uint8
}

// Init sets up the unit's identity (flag masks and enable bits) and
// resets it. The SFR and Scheduler fields must be wired first.
func (u *USART) Init(id int) {
	u.id = id
	u.bank = id

	if id == 0 {
		u.utxifg = UTXIFG0
		u.urxifg = URXIFG0
		u.txbit = USART0_TX_BIT
	} else {
		u.utxifg = UTXIFG1
		u.urxifg = URXIFG1
		u.txbit = USART1_TX_BIT
	}

	u.tickPerByte = 1000
	u.txTrigger = scheduler.Event{
		Name: u.Name() + " shift",
		Execute: func(cycle uint64) {
			u.handleTransmit(cycle)
		},
	}

	u.Reset()
}

func (u *USART) Name() string {
	if u.id == 0 {
		return "usart0"
	}

	return "usart1"
}

// Reset restores the post-reset register state: nothing in flight, shift
// register flagged empty, both paths disabled until the module-enable bits
// are written again. The shift trigger is re-armed a short, fixed distance
// ahead so the transmit-ready flag comes up shortly after reset.
func (u *USART) Reset() {
	u.nextTXReady = u.Scheduler.Cycles() + 100
	u.txShiftReg = -1
	u.nextTXByte = -1
	u.transmitting = false
	u.clrBitIFG(u.utxifg | u.urxifg)
	u.utctl |= UTCTL_TXEMPTY
	u.Scheduler.Schedule(&u.txTrigger, u.nextTXReady)
	u.txEnabled = false
	u.rxEnabled = false
}

// EnableChanged tracks the unit's module-enable bits in the shared enable
// register, keyed by bit position.
func (u *USART) EnableChanged(bank, bit int, enabled bool) {
	log.Debug("[%s] enable changed: bank %d bit %d = %t", u.Name(), bank, bit, enabled)

	if bit == u.txbit {
		u.txEnabled = enabled
	} else {
		u.rxEnabled = enabled
	}
}

func (u *USART) setBitIFG(bits uint8) {
	u.SFR.SetBitIFG(u.bank, bits)
}

func (u *USART) clrBitIFG(bits uint8) {
	u.SFR.ClrBitIFG(u.bank, bits)
}

func (u *USART) getIFG() uint8 {
	return u.SFR.GetIFG(u.bank)
}

func (u *USART) isIEBitsSet(bits uint8) bool {
	return u.SFR.IsIEBitsSet(u.bank, bits)
}

func (u *USART) Write(offset uint16, value uint8, cycles uint64) {
	switch offset {
	case UCTL:
		u.uctl = value
		u.spiMode = value&UCTL_SYNC != 0
	case UTCTL:
		u.utctl = value

		if (value>>4)&3 == 1 {
			u.clockSource = clockACLK
			log.Debug("[%s] selected ACLK as clock source", u.Name())
		} else {
			u.clockSource = clockSMCLK
			log.Debug("[%s] selected SMCLK as clock source", u.Name())
		}

		u.updateBaudRate()
	case URCTL:
		u.urctl = value
	case UMCTL:
		u.umctl = value
	case UBR0:
		u.ubr0 = value
		u.updateBaudRate()
	case UBR1:
		u.ubr1 = value
		u.updateBaudRate()
	case UTXBUF:
		u.submitTX(value, cycles)
	}
}

func (u *USART) Read(offset uint16, cycles uint64) uint8 {
	switch offset {
	case UCTL:
		return u.uctl
	case UTCTL:
		return u.utctl
	case URCTL:
		return u.urctl
	case UMCTL:
		return u.umctl
	case UBR0:
		return u.ubr0
	case UBR1:
		return u.ubr1
	case UTXBUF:
		return u.utxbuf
	case URXBUF:
		tmp := u.urxbuf

		// Reading the buffer acknowledges the byte: the receive flag
		// drops and the line side is told it may deliver the next one.
		u.clrBitIFG(u.urxifg)

		if u.Listener != nil {
			u.Listener.StateChanged(u, RXFlagCleared)
		}

		return tmp
	}

	return 0
}

func (u *USART) updateBaudRate() {
	div := int(u.ubr0) + int(u.ubr1)<<8
	if div == 0 {
		div = 1
	}

	if u.clockSource == clockACLK {
		u.baudRate = u.ACLKFrq / div
	} else {
		u.baudRate = u.SMCLKFrq / div
	}

	if u.baudRate == 0 {
		u.baudRate = 1
	}

	// The byte period always derives from SMCLK, even when ACLK feeds
	// the divider.
	u.tickPerByte = uint64(8 * u.SMCLKFrq / u.baudRate)

	log.Debug("[%s] baud rate %d (div %d), ticks per byte %d", u.Name(), u.baudRate, div, u.tickPerByte)
}

// IsReceiveFlagCleared reports whether the receive buffer has been read
// since the last delivery, i.e. whether the line may deliver another byte.
func (u *USART) IsReceiveFlagCleared() bool {
	return u.getIFG()&u.urxifg == 0
}

// ByteReceived delivers a byte from the line. Dropped when the receiver is
// not enabled.
func (u *USART) ByteReceived(b int) {
	if !u.rxEnabled {
		log.Debug("[%s] dropping received byte %02x, receiver not enabled", u.Name(), b)
		return
	}

	u.urxbuf = uint8(b & 0xFF)
	u.setBitIFG(u.urxifg)

	if u.isIEBitsSet(u.urxifg) {
		log.Debug("[%s] flagging receive interrupt", u.Name())
	}
}
