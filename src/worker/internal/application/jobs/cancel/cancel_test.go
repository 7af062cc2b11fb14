package cancel_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/cancel"
)

var _ = Describe("Cancel handler", func() {
	var (
		ctx      context.Context
		registry *cancel.Registry
		handler  cancel.JobHandler
	)

	message := func(jobID string) []byte {
		body, err := json.Marshal(dispatch.CancelJobParams{JobID: jobID})
		Expect(err).NotTo(HaveOccurred())
		return body
	}

	BeforeEach(func() {
		ctx = context.Background()
		registry = cancel.NewRegistry()
		handler = cancel.NewJobHandler(registry)
	})

	It("cancels a job running in this worker", func() {
		jobCtx, release := registry.Track(ctx, "job-1")
		defer release()

		Expect(handler.HandleCancelJob(ctx, message("job-1"))).To(Succeed())
		Expect(jobCtx.Err()).To(MatchError(context.Canceled))
	})

	It("leaves other jobs alone", func() {
		jobCtx, release := registry.Track(ctx, "job-1")
		defer release()

		Expect(handler.HandleCancelJob(ctx, message("job-2"))).To(Succeed())
		Expect(jobCtx.Err()).NotTo(HaveOccurred())
	})

	It("forgets jobs once they are released", func() {
		_, release := registry.Track(ctx, "job-1")
		release()

		Expect(registry.Cancel("job-1")).To(BeFalse())
	})

	It("rejects a message without a job id", func() {
		Expect(handler.HandleCancelJob(ctx, []byte(`{}`))).NotTo(Succeed())
	})

	It("rejects malformed JSON", func() {
		Expect(handler.HandleCancelJob(ctx, []byte(`{`))).NotTo(Succeed())
	})
})
