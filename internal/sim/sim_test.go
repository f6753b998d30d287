package sim

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d3s-trento/mspsim/internal/sim/components/sfr"
	"github.com/d3s-trento/mspsim/internal/sim/components/usart"
)

func TestSim_BannerThenEcho(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	s := build(
		WithBanner("OK>"),
		WithInput(strings.NewReader("hi")),
		WithOutput(out),
	)
	defer s.terminal.Close()

	s.setup()

	assert.Eventually(t, func() bool {
		for i := 0; i < 4096; i++ {
			s.step()
		}

		s.terminal.Poll()

		return out.String() == "OK>hi"
	}, 5*time.Second, time.Millisecond)
}

func TestSim_SecondUnitStaysQuiet(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	s := build(WithBanner("x"), WithInput(strings.NewReader("")), WithOutput(out))
	defer s.terminal.Close()

	s.setup()

	for i := 0; i < 4096; i++ {
		s.step()
	}

	// Nothing enabled USART1: its flag bank must be untouched.
	assert.Equal(t, uint8(0), s.sfr.GetIFG(1)&(usart.UTXIFG1|usart.URXIFG1))
}

func TestSim_SetupProgramsUnitThroughBus(t *testing.T) {
	t.Parallel()

	s := build(WithBanner(""), WithInput(strings.NewReader("")), WithOutput(&bytes.Buffer{}))
	defer s.terminal.Close()

	s.setup()

	now := s.scheduler.Cycles()

	enable := uint8(1<<usart.USART0_TX_BIT | 1<<usart.USART0_RX_BIT)
	assert.Equal(t, enable, s.bus.Read(sfr.ME1, now))
	assert.Equal(t, enable, s.bus.Read(sfr.IE1, now))
	assert.Equal(t, uint8(DEFAULT_DIVISOR), s.bus.Read(usart.USART0_BASE+usart.UBR0, now))
	assert.Equal(t, uint8(0), s.bus.Read(usart.USART0_BASE+usart.UBR1, now))
}

func TestRun_StopsAtCycleLimit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := Run(context.Background(),
		WithBanner("boot\n"),
		WithInput(strings.NewReader("")),
		WithOutput(out),
		WithCycleLimit(200000),
	)

	assert.NoError(t, err)
	assert.Equal(t, "boot\n", out.String())
}

func TestRun_HonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx,
		WithInput(strings.NewReader("")),
		WithOutput(&bytes.Buffer{}),
	)

	assert.NoError(t, err)
}
