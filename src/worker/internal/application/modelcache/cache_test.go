package modelcache_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
)

func checksum(contents []byte) string {
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:])
}

var _ = Describe("Cache", func() {
	var (
		dir   string
		cache *modelcache.Cache
		ctx   context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cache = ExpectSuccess(modelcache.NewCache(dir, modelcache.WithRetryInterval(time.Millisecond)))
		ctx = context.Background()
	})

	Describe("builtin models", func() {
		It("serves every backend", func() {
			for _, entry := range modelcache.BuiltinCatalog() {
				model := ExpectSuccess(cache.Get(ctx, entry))
				descriptor, ok := backend.Describe(entry.Kind)
				Expect(ok).To(BeTrue())
				Expect(model.Weights.Stems).To(Equal(descriptor.NativeStems))
				Expect(model.Config.SampleRate).To(Equal(44100))
				Expect(model.Config.Inference.Validate()).To(Succeed())
			}
		})

		It("pins every builtin file to the digest of its generated contents", func() {
			for _, entry := range modelcache.BuiltinCatalog() {
				weights := ExpectSuccess(modelcache.BuiltinWeights(entry.Kind))
				config := ExpectSuccess(modelcache.BuiltinConfig(entry.Kind))
				Expect(entry.WeightsSHA256).To(Equal(checksum(weights)))
				Expect(entry.ConfigSHA256).To(Equal(checksum(config)))
			}
		})

		It("regenerates a builtin file that was altered in the cache", func() {
			entry, ok := modelcache.BuiltinCatalog().Lookup(backend.BaselineKind)
			Expect(ok).To(BeTrue())

			weightsPath := filepath.Join(dir, entry.Name+".weights")
			Expect(os.WriteFile(weightsPath, []byte("tampered"), 0o644)).To(Succeed())

			ExpectSuccess(cache.Get(ctx, entry))
			Expect(ExpectSuccess(os.ReadFile(weightsPath))).To(Equal(ExpectSuccess(modelcache.BuiltinWeights(backend.BaselineKind))))
		})

		It("pins builtin files by checksum", func() {
			weights := ExpectSuccess(modelcache.BuiltinWeights(backend.EnsembleKind))
			entry := modelcache.Entry{
				Kind:          backend.EnsembleKind,
				Name:          "ensemble-pinned",
				WeightsURL:    "builtin:ensemble",
				WeightsSHA256: checksum(weights),
				ConfigURL:     "builtin:ensemble",
			}
			ExpectSuccess(cache.Get(ctx, entry))
		})
	})

	Describe("downloaded models", func() {
		var (
			server        *httptest.Server
			requests      atomic.Int32
			failuresLeft  atomic.Int32
			failureStatus int
			weights       []byte
			config        []byte
			entry         modelcache.Entry
		)

		BeforeEach(func() {
			requests.Store(0)
			failuresLeft.Store(0)
			failureStatus = http.StatusInternalServerError
			weights = ExpectSuccess(modelcache.BuiltinWeights(backend.WindowedMultibandKind))
			config = ExpectSuccess(modelcache.BuiltinConfig(backend.WindowedMultibandKind))

			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				if failuresLeft.Load() > 0 {
					failuresLeft.Add(-1)
					w.WriteHeader(failureStatus)
					return
				}

				switch r.URL.Path {
				case "/multiband.weights":
					_, _ = w.Write(weights)
				case "/multiband.yaml":
					_, _ = w.Write(config)
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))

			entry = modelcache.Entry{
				Kind:          backend.WindowedMultibandKind,
				Name:          "multiband",
				WeightsURL:    server.URL + "/multiband.weights",
				WeightsSHA256: checksum(weights),
				ConfigURL:     server.URL + "/multiband.yaml",
				ConfigSHA256:  checksum(config),
			}
		})

		AfterEach(func() {
			server.Close()
		})

		It("downloads once and then reads from disk", func() {
			model := ExpectSuccess(cache.Get(ctx, entry))
			Expect(model.Weights.Stems).To(HaveLen(6))
			Expect(requests.Load()).To(BeEquivalentTo(2))

			ExpectSuccess(cache.Get(ctx, entry))
			cache.Forget(entry.Name)
			ExpectSuccess(cache.Get(ctx, entry))
			Expect(requests.Load()).To(BeEquivalentTo(2))
		})

		It("retries transient failures", func() {
			failuresLeft.Store(2)
			ExpectSuccess(cache.Get(ctx, entry))
			Expect(requests.Load()).To(BeEquivalentTo(4))
		})

		It("gives up after three attempts", func() {
			failuresLeft.Store(100)
			_, err := cache.Get(ctx, entry)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, jobentity.DownloadMark)).To(BeTrue())
			Expect(jobentity.ClassifyError(err).IsRetryable()).To(BeTrue())
			Expect(requests.Load()).To(BeEquivalentTo(3))
		})

		It("does not retry a missing file", func() {
			entry.WeightsURL = server.URL + "/missing.weights"
			_, err := cache.Get(ctx, entry)
			Expect(markers.Is(err, jobentity.DownloadMark)).To(BeTrue())
			Expect(requests.Load()).To(BeEquivalentTo(1))
		})

		It("deletes a download that does not match its checksum", func() {
			entry.WeightsSHA256 = checksum([]byte("something else"))
			_, err := cache.Get(ctx, entry)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, jobentity.ChecksumMismatchMark)).To(BeTrue())
			Expect(jobentity.ClassifyError(err)).To(Equal(jobentity.ChecksumMismatchErrorKind))

			Expect(filepath.Join(dir, "multiband.weights")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, "multiband.weights.partial")).NotTo(BeAnExistingFile())
		})

		It("replaces a corrupt cached file", func() {
			Expect(os.WriteFile(filepath.Join(dir, "multiband.weights"), []byte("garbage"), 0o644)).To(Succeed())

			model := ExpectSuccess(cache.Get(ctx, entry))
			Expect(model.Weights.Bands).To(Equal(16))
			Expect(ExpectSuccess(os.ReadFile(filepath.Join(dir, "multiband.weights")))).To(Equal(weights))
		})
	})
})
