package usart

import "github.com/d3s-trento/mspsim/internal/log"

// Transmit path. The hardware double-buffers: a byte written to UTXBUF
// waits in the buffer until the shift register is free, then gets clocked
// out over one byte period. Both hops are modeled with a single scheduled
// event per unit, re-armed with the delay of whichever hop comes next.
const (
	// Cycles to copy UTXBUF into the shift register.
	txLoadCycles = 3
)

func (u *USART) submitTX(data uint8, cycles uint64) {
	if u.txEnabled || (u.spiMode && u.rxEnabled) {
		u.clrBitIFG(u.utxifg)

		// The buffer is occupied until the load event picks it up.
		u.utctl &^= UTCTL_TXEMPTY

		// Last write wins: a byte already waiting is simply replaced.
		u.nextTXByte = int(data)

		if !u.transmitting {
			u.nextTXReady = cycles + txLoadCycles
			u.Scheduler.Schedule(&u.txTrigger, u.nextTXReady)
		}
	} else {
		log.Warn("[%s] ignoring UTXBUF write %02x, transmitter not active", u.Name(), data)
	}

	u.utxbuf = data
}

func (u *USART) handleTransmit(cycles uint64) {
	if u.transmitting {
		// The byte in the shift register has been fully clocked out.
		if u.Listener != nil && u.txShiftReg != -1 {
			u.Listener.DataReceived(u, uint8(u.txShiftReg))
		}

		if u.nextTXByte == -1 {
			u.utctl |= UTCTL_TXEMPTY
			u.transmitting = false
			u.txShiftReg = -1
		}
	}

	if u.nextTXByte != -1 {
		u.txShiftReg = u.nextTXByte
		u.nextTXByte = -1
		u.transmitting = true
		u.nextTXReady = cycles + u.tickPerByte + 1
		u.Scheduler.Schedule(&u.txTrigger, u.nextTXReady)
	}

	// The buffer is free again either way.
	u.setBitIFG(u.utxifg)

	log.Debug("[%s] ready to transmit next at cycle %d", u.Name(), cycles)
}
