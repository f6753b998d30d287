package bus

import (
	"github.com/d3s-trento/mspsim/internal/sim/components/usart"
)

type sfr interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

type unit interface {
	Read(offset uint16, cycles uint64) uint8
	Write(offset uint16, value uint8, cycles uint64)
}

type memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

const (
	SFR_START = 0x0000
	SFR_END   = 0x0005

	USART0_END = usart.USART0_BASE + usart.UTXBUF
	USART1_END = usart.USART1_BASE + usart.UTXBUF
)

// Bus decodes addresses into the special function registers, the two serial
// units and RAM. Peripheral accesses carry the current cycle so the units
// can schedule against it. Everything past the bus is 8 bits wide.
type Bus struct {
	SFR    sfr
	USART0 unit
	USART1 unit
	Memory memory
}

func (b *Bus) Read(addr uint16, cycles uint64) uint8 {
	switch {
	case addr <= SFR_END:
		return b.SFR.Read(addr)
	case addr >= usart.USART0_BASE && addr <= USART0_END:
		return b.USART0.Read(addr-usart.USART0_BASE, cycles)
	case addr >= usart.USART1_BASE && addr <= USART1_END:
		return b.USART1.Read(addr-usart.USART1_BASE, cycles)
	default:
		return b.Memory.Read(addr)
	}
}

func (b *Bus) Write(addr uint16, value uint8, cycles uint64) {
	switch {
	case addr <= SFR_END:
		b.SFR.Write(addr, value)
	case addr >= usart.USART0_BASE && addr <= USART0_END:
		b.USART0.Write(addr-usart.USART0_BASE, value, cycles)
	case addr >= usart.USART1_BASE && addr <= USART1_END:
		b.USART1.Write(addr-usart.USART1_BASE, value, cycles)
	default:
		b.Memory.Write(addr, value)
	}
}
