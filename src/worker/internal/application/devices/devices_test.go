package devices_test

import (
	"context"
	"time"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/devices"
)

var _ = Describe("Pool", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("never blocks cpu jobs", func() {
		pool := devices.NewPool(0)
		lease := ExpectSuccess(pool.Acquire(ctx, jobentity.CPUDevice))
		Expect(lease.Slot).To(Equal(devices.CPUSlot))
		lease.Release()
	})

	It("refuses accelerator jobs without accelerators", func() {
		pool := devices.NewPool(0)
		_, err := pool.Acquire(ctx, jobentity.AcceleratorDevice)
		Expect(markers.Is(err, jobentity.ResourceExhaustedMark)).To(BeTrue())
	})

	It("hands out each slot once until it is released", func() {
		pool := devices.NewPool(2)
		first := ExpectSuccess(pool.Acquire(ctx, jobentity.AcceleratorDevice))
		second := ExpectSuccess(pool.Acquire(ctx, jobentity.AcceleratorDevice))
		Expect([]int{first.Slot, second.Slot}).To(ConsistOf(0, 1))

		waiting, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := pool.Acquire(waiting, jobentity.AcceleratorDevice)
		Expect(err).To(HaveOccurred())

		first.Release()
		third := ExpectSuccess(pool.Acquire(ctx, jobentity.AcceleratorDevice))
		Expect(third.Slot).To(Equal(first.Slot))
	})
})
