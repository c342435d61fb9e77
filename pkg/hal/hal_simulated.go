package hal

import "github.com/uptime-industries/fanctrl-agent/pkg/hal/mmio"

// simulatedMaxRPM is the speed of a simulated fan at full duty cycle.
const simulatedMaxRPM = 3000

// simulatedBlock is an in-memory register window whose tachometer registers follow the PWM and
// enable registers like a bank of ideal fans would.
type simulatedBlock struct {
	*mmio.Memory
	nrFans uint32
}

func newSimulatedBlock(nrFans int) *simulatedBlock {
	words := 1 + 2*nrFans
	if words < 1 {
		words = 1
	}
	return &simulatedBlock{
		Memory: mmio.NewMemory(words),
		nrFans: uint32(max(nrFans, 0)),
	}
}

func (b *simulatedBlock) Read(index uint32) uint32 {
	tachBase := regPwmBase + b.nrFans
	if index < tachBase || index >= tachBase+b.nrFans {
		return b.Memory.Read(index)
	}

	channel := index - tachBase
	if b.Memory.Read(regEnable)>>channel&1 == 0 {
		return 0
	}
	pwm := b.Memory.Read(regPwmBase+channel) & 0xff
	rpm := simulatedMaxRPM * pwm / MaxPWM
	if rpm == 0 {
		return 0
	}
	return PulsesPerMinute / rpm
}
