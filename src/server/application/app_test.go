package application_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/server/application"
	jobgateway "github.com/veedubyou/stemsplit-be/src/server/internal/job/gateway"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq/rabbitmqfakes"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/shared/testing/dummy"
)

var _ = Describe("Routes", func() {
	var (
		handler   http.Handler
		fastQueue *rabbitmqfakes.FakePublisher
		slowQueue *rabbitmqfakes.FakePublisher
	)

	BeforeEach(func() {
		fileStore := dummy.NewDummyFileStore()
		fastQueue = &rabbitmqfakes.FakePublisher{}
		slowQueue = &rabbitmqfakes.FakePublisher{}

		err := source.NewStore(fileStore).PutSource(context.Background(), source.SourceAudio{
			ID:       "source-1",
			AudioKey: "sources/source-1/original.wav",
		})
		Expect(err).NotTo(HaveOccurred())

		app := application.NewAppWithDependencies(application.Config{
			CORSAllowedOrigins: []string{"http://localhost:3000"},
		}, application.Dependencies{
			JobStore:   dummy.NewDummyJobStore(),
			FileStore:  fileStore,
			Dispatcher: dispatch.NewRabbitMQDispatcher(fastQueue, slowQueue, &rabbitmqfakes.FakePublisher{}),
		})
		handler = app.Handler()
	})

	var serve = func(factory testing.RequestFactory) *httptest.ResponseRecorder {
		response := httptest.NewRecorder()
		handler.ServeHTTP(response, factory.MakeFake())
		return response
	}

	It("answers the health check", func() {
		response := serve(testing.RequestFactory{Method: "GET", Target: "/health-check"})
		Expect(response.Code).To(Equal(http.StatusOK))
	})

	It("runs a job through submit, get, cancel and delete", func() {
		response := serve(testing.RequestFactory{
			Method: "POST",
			Target: "/jobs",
			JSONObj: map[string]any{
				"sourceAudioId":  "source-1",
				"backendKind":    "baseline",
				"backendParams":  map[string]any{"outputFormat": "wav"},
				"variant":        "static",
				"requestedStems": []string{"vocals"},
			},
		})
		Expect(response.Code).To(Equal(http.StatusCreated))
		job := testing.DecodeJSON[jobgateway.JobResponse](response.Body)
		Expect(job.RequestedStems).To(Equal([]string{"vocals"}))

		response = serve(testing.RequestFactory{Method: "GET", Target: "/jobs/" + job.ID})
		Expect(response.Code).To(Equal(http.StatusOK))
		Expect(testing.DecodeJSON[jobgateway.JobResponse](response.Body).ID).To(Equal(job.ID))

		response = serve(testing.RequestFactory{Method: "POST", Target: "/jobs/" + job.ID + "/cancel"})
		Expect(response.Code).To(Equal(http.StatusOK))

		response = serve(testing.RequestFactory{Method: "DELETE", Target: "/jobs/" + job.ID})
		Expect(response.Code).To(Equal(http.StatusOK))

		response = serve(testing.RequestFactory{Method: "GET", Target: "/jobs/" + job.ID})
		Expect(response.Code).To(Equal(http.StatusNotFound))

		Expect(slowQueue.PublishCallCount()).To(Equal(1))
		Expect(fastQueue.PublishCallCount()).To(Equal(1))
	})

	It("routes source imports to the fast queue", func() {
		response := serve(testing.RequestFactory{
			Method:  "POST",
			Target:  "/sources",
			JSONObj: map[string]string{"url": "https://example.com/song.wav"},
		})
		Expect(response.Code).To(Equal(http.StatusAccepted))
		Expect(fastQueue.PublishCallCount()).To(Equal(1))
		Expect(fastQueue.PublishArgsForCall(0).Type).To(Equal(dispatch.ImportSourceType))

		response = serve(testing.RequestFactory{Method: "GET", Target: "/sources/source-1"})
		Expect(response.Code).To(Equal(http.StatusOK))
	})

	It("answers CORS preflights", func() {
		response := serve(testing.RequestFactory{
			Method: "OPTIONS",
			Target: "/jobs",
			Mods: testing.RequestModifiers{
				func(r *http.Request) {
					r.Header.Set("Origin", "http://localhost:3000")
					r.Header.Set("Access-Control-Request-Method", "POST")
				},
			},
		})
		Expect(response.Code).To(Equal(http.StatusNoContent))
		Expect(response.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
	})
})
