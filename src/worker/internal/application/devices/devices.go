// Package devices leases accelerator slots so no more jobs run on accelerators than there are devices.
package devices

import (
	"context"

	"github.com/apex/log"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

// CPUSlot is the slot of a lease that holds no accelerator.
const CPUSlot = -1

const NoAcceleratorMessage = "This worker has no accelerator configured, submit the job for the cpu instead"

type Lease struct {
	Slot    int
	release func()
}

func (l Lease) Release() {
	if l.release != nil {
		l.release()
	}
}

type Pool struct {
	slots chan int
}

func NewPool(acceleratorCount int) *Pool {
	slots := make(chan int, max(acceleratorCount, 0))
	for i := 0; i < acceleratorCount; i++ {
		slots <- i
	}

	return &Pool{slots: slots}
}

func (p *Pool) Size() int {
	return cap(p.slots)
}

// Acquire blocks until an accelerator slot frees up. CPU jobs are bounded by the consumer count
// alone and never wait here.
func (p *Pool) Acquire(ctx context.Context, device jobentity.Device) (Lease, error) {
	if device != jobentity.AcceleratorDevice {
		return Lease{Slot: CPUSlot}, nil
	}

	if p.Size() == 0 {
		return Lease{}, mark.Message(jobentity.ResourceExhaustedMark, NoAcceleratorMessage)
	}

	select {
	case slot := <-p.slots:
		log.WithField("slot", slot).Debug("Leased accelerator slot")
		return Lease{
			Slot: slot,
			release: func() {
				p.slots <- slot
			},
		}, nil

	case <-ctx.Done():
		return Lease{}, cerr.Wrap(ctx.Err()).Error("Gave up waiting for an accelerator")
	}
}
