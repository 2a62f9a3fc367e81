package machine

import (
	"sync/atomic"
)

// FloatingBus is a channel with no drive attached. Every read returns all
// bits set.
type FloatingBus struct {
	reads  atomic.Int64
	writes atomic.Int64
}

// Accesses returns the number of port reads and writes seen.
func (b *FloatingBus) Accesses() (int64, int64) {
	return b.reads.Load(), b.writes.Load()
}

func (b *FloatingBus) Inb(uint16) uint8 {
	b.reads.Add(1)

	return 0xFF //nolint:mnd
}

func (b *FloatingBus) Outb(uint16, uint8) {
	b.writes.Add(1)
}

func (b *FloatingBus) Inw(uint16) uint16 {
	b.reads.Add(1)

	return 0xFFFF //nolint:mnd
}

func (b *FloatingBus) Outw(uint16, uint16) {
	b.writes.Add(1)
}

// Interrupts is the interrupt enable flag of the single emulated CPU.
type Interrupts struct {
	enabled  atomic.Bool
	sections atomic.Int64
}

// NewInterrupts returns a pointer to a new [Interrupts] with interrupts
// enabled.
func NewInterrupts() *Interrupts {
	irq := &Interrupts{}
	irq.enabled.Store(true)

	return irq
}

// Enabled reports whether interrupts are currently enabled.
func (irq *Interrupts) Enabled() bool {
	return irq.enabled.Load()
}

// Sections returns how many critical sections have been entered.
func (irq *Interrupts) Sections() int64 {
	return irq.sections.Load()
}

// WithoutInterrupts runs fn with interrupts disabled and restores the
// previous state afterwards, so sections may nest.
func (irq *Interrupts) WithoutInterrupts(fn func() error) error {
	prev := irq.enabled.Swap(false)
	irq.sections.Add(1)

	defer irq.enabled.Store(prev)

	return fn()
}
