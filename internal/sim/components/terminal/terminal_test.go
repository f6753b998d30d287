package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d3s-trento/mspsim/internal/sim/components/usart"
)

type stubReceiver struct {
	delivered []int
	flagClear bool
}

func (r *stubReceiver) ByteReceived(b int) {
	r.delivered = append(r.delivered, b)
	r.flagClear = false
}

func (r *stubReceiver) IsReceiveFlagCleared() bool {
	return r.flagClear
}

func TestTerminal_DeliversOneByteAtATime(t *testing.T) {
	t.Parallel()

	rec := &stubReceiver{flagClear: true}

	term := &Terminal{USART: rec}
	term.Init(WithReader(strings.NewReader("hi")), WithWriter(&bytes.Buffer{}))

	assert.Eventually(t, func() bool {
		term.Poll()
		return len(rec.delivered) == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, []int{'h'}, rec.delivered)

	// The second byte stays queued until the first is read out.
	assert.Eventually(t, func() bool {
		term.Poll()
		return term.pending.GetCount() == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, []int{'h'}, rec.delivered)

	rec.flagClear = true
	term.StateChanged(nil, usart.RXFlagCleared)
	assert.Equal(t, []int{'h', 'i'}, rec.delivered)
}

func TestTerminal_PrintsTransmittedBytes(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	term := &Terminal{USART: &stubReceiver{}}
	term.Init(WithWriter(out))

	term.DataReceived(nil, 'A')
	term.DataReceived(nil, 'B')

	assert.Equal(t, "AB", out.String())
}

func TestTerminal_HoldsInputWhileFlagSet(t *testing.T) {
	t.Parallel()

	rec := &stubReceiver{flagClear: false}

	term := &Terminal{USART: rec}
	term.Init(WithReader(strings.NewReader("x")), WithWriter(&bytes.Buffer{}))

	assert.Eventually(t, func() bool {
		term.Poll()
		return term.pending.GetCount() == 1
	}, time.Second, time.Millisecond)

	assert.Empty(t, rec.delivered)

	rec.flagClear = true
	term.Poll()
	assert.Equal(t, []int{'x'}, rec.delivered)
}
