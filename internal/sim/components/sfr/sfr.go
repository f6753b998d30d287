package sfr

import (
	"github.com/d3s-trento/mspsim/internal/lib"
	"github.com/d3s-trento/mspsim/internal/log"
)

// Special function registers: the shared interrupt-enable, interrupt-flag
// and module-enable pairs at the bottom of the address space. Peripherals
// never touch these bytes directly; they go through the bit-keyed API so
// each one only ever sees its own bits.
const (
	IE1 = 0x00
	IE2 = 0x01

	IFG1 = 0x02
	IFG2 = 0x03

	ME1 = 0x04
	ME2 = 0x05

	BANKS = 2
	BITS  = 8
)

type module interface {
	EnableChanged(bank, bit int, enabled bool)
}

type registration struct {
	module module
	vector int
}

type SFR struct {
	regs [6]uint8

	modules [BANKS][BITS]*registration
}

func (s *SFR) Init() {
	s.regs = [6]uint8{}
	s.modules = [BANKS][BITS]*registration{}
}

// RegisterModule routes a module-enable bit (and its interrupt vector) to a
// peripheral. EnableChanged fires whenever that bit of the ME register
// flips.
func (s *SFR) RegisterModule(bank, bit int, m module, vector int) {
	lib.Assert(bank >= 0 && bank < BANKS, "sfr: bank out of range: %d", bank)
	lib.Assert(bit >= 0 && bit < BITS, "sfr: bit out of range: %d", bit)

	s.modules[bank][bit] = &registration{module: m, vector: vector}
}

func (s *SFR) Read(addr uint16) uint8 {
	if int(addr) >= len(s.regs) {
		log.Debug("[sfr] unmapped read: %02x", addr)
		return 0
	}

	return s.regs[addr]
}

func (s *SFR) Write(addr uint16, value uint8) {
	if int(addr) >= len(s.regs) {
		log.Debug("[sfr] unmapped write: %02x = %02x", addr, value)
		return
	}

	old := s.regs[addr]
	s.regs[addr] = value

	if addr == ME1 || addr == ME2 {
		s.notifyEnableChanged(int(addr-ME1), old, value)
	}
}

func (s *SFR) notifyEnableChanged(bank int, old, value uint8) {
	changed := old ^ value

	for bit := 0; bit < BITS; bit++ {
		if changed&(1<<bit) == 0 {
			continue
		}

		reg := s.modules[bank][bit]
		if reg == nil {
			continue
		}

		enabled := value&(1<<bit) != 0

		log.Debug("[sfr] module enable bank %d bit %d = %t", bank, bit, enabled)
		reg.module.EnableChanged(bank, bit, enabled)
	}
}

func (s *SFR) SetBitIFG(bank int, bits uint8) {
	s.regs[IFG1+uint16(bank)] |= bits
}

func (s *SFR) ClrBitIFG(bank int, bits uint8) {
	s.regs[IFG1+uint16(bank)] &^= bits
}

func (s *SFR) GetIFG(bank int) uint8 {
	return s.regs[IFG1+uint16(bank)]
}

func (s *SFR) IsIEBitsSet(bank int, bits uint8) bool {
	return s.regs[IE1+uint16(bank)]&bits == bits
}

// PendingVector reports the lowest registered vector whose enable and flag
// bits are both set. The second return is false when nothing is pending.
func (s *SFR) PendingVector() (int, bool) {
	vector := -1

	for bank := 0; bank < BANKS; bank++ {
		pending := s.regs[IE1+uint16(bank)] & s.regs[IFG1+uint16(bank)]

		for bit := 0; bit < BITS; bit++ {
			if pending&(1<<bit) == 0 {
				continue
			}

			reg := s.modules[bank][bit]
			if reg == nil {
				continue
			}

			if vector == -1 || reg.vector < vector {
				vector = reg.vector
			}
		}
	}

	return vector, vector != -1
}
