package cerr_test

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
)

var _ = Describe("Cerr", func() {
	It("keeps the cause's marks when wrapping", func() {
		sentinel := errors.New("sentinel")
		cause := errors.Mark(errors.New("disk full"), sentinel)

		err := cerr.Field("job_id", "abc").Wrap(cause).Error("Failed to write stems")

		Expect(err.Error()).To(Equal("Failed to write stems: disk full"))
		Expect(markers.Is(err, sentinel)).To(BeTrue())
	})

	It("collects fields across the chain with outer fields first", func() {
		inner := cerr.Fields(cerr.F{"stem": "vocals", "job_id": "inner"}).Error("Failed to encode")
		outer := cerr.Field("job_id", "outer").Wrap(inner).Error("Failed to separate")

		fields := cerr.CollectFields(outer)
		Expect(fields).To(HaveKeyWithValue("job_id", "outer"))
		Expect(fields).To(HaveKeyWithValue("stem", "vocals"))
	})

	It("creates plain errors without fields", func() {
		err := cerr.Error("Worker has been stopped")
		Expect(err.Error()).To(Equal("Worker has been stopped"))
		Expect(cerr.CollectFields(err)).To(BeEmpty())
	})
})
