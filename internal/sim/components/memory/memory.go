package memory

import "github.com/d3s-trento/mspsim/internal/log"

const (
	RAM_START = 0x0200
	RAM_END   = 0x09FF
	RAM_SIZE  = RAM_END - RAM_START + 1
)

type Memory struct {
	ram [RAM_SIZE]uint8
}

func (m *Memory) Init() {
	m.ram = [RAM_SIZE]uint8{}
}

func (m *Memory) Read(addr uint16) uint8 {
	if addr >= RAM_START && addr <= RAM_END {
		return m.ram[addr-RAM_START]
	}

	log.Debug("[memory] unmapped read: %04x", addr)

	return 0
}

func (m *Memory) Write(addr uint16, value uint8) {
	if addr >= RAM_START && addr <= RAM_END {
		m.ram[addr-RAM_START] = value
		return
	}

	log.Debug("[memory] unmapped write: %04x = %02x", addr, value)
}
