package workerconfig_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/backend"
	. "github.com/veedubyou/stemsplit-be/src/shared/testing"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/workerconfig"
)

var _ = Describe("Worker config", func() {
	var path string

	write := func(contents string) {
		path = filepath.Join(GinkgoT().TempDir(), "worker.toml")
		Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	}

	It("has usable defaults", func() {
		cfg := workerconfig.Default()
		Expect(cfg.Validate()).To(Succeed())

		Expect(cfg.Queues.SeparationConsumers).To(Equal(1))
		Expect(cfg.Separation.Isolation).To(Equal(workerconfig.ProcessIsolation))
		Expect(cfg.SeparationTimeout()).To(Equal(time.Hour))
		Expect(cfg.ReaperThreshold()).To(Equal(60 * time.Minute))
		Expect(cfg.ReaperInterval()).To(Equal(30 * time.Minute))
		Expect(cfg.ModelsDir("/work")).To(Equal("/work/models"))
		Expect(cfg.Catalog()).To(Equal(modelcache.BuiltinCatalog()))
	})

	It("loads only the defaults without a path", func() {
		cfg := ExpectSuccess(workerconfig.Load(""))
		Expect(cfg).To(Equal(workerconfig.Default()))
	})

	It("overrides the defaults it names", func() {
		write(`
[queues]
separation_consumers = 2

[separation]
isolation = "goroutine"
timeout = 90

[[models.catalog]]
kind = "baseline"
name = "baseline-v2"
weights_url = "https://models.example.com/baseline-v2.msgpack"
weights_sha256 = "abc"
config_url = "https://models.example.com/baseline-v2.yaml"
`)

		cfg := ExpectSuccess(workerconfig.Load(path))
		Expect(cfg.Queues.SeparationConsumers).To(Equal(2))
		Expect(cfg.Queues.FastConsumers).To(Equal(4))
		Expect(cfg.Separation.Isolation).To(Equal(workerconfig.GoroutineIsolation))
		Expect(cfg.SeparationTimeout()).To(Equal(90 * time.Second))
		Expect(cfg.Separation.Attempts).To(Equal(2))

		catalog := cfg.Catalog()
		Expect(catalog).To(HaveLen(len(backend.Kinds)))

		baseline, ok := catalog.Lookup(backend.BaselineKind)
		Expect(ok).To(BeTrue())
		Expect(baseline.Name).To(Equal("baseline-v2"))

		ensemble, ok := catalog.Lookup(backend.EnsembleKind)
		Expect(ok).To(BeTrue())
		Expect(ensemble.WeightsURL).To(HavePrefix(modelcache.BuiltinScheme))
	})

	It("rejects unknown settings", func() {
		write("[queues]\nseparation_workers = 2\n")
		_, err := workerconfig.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown isolation mode", func() {
		write("[separation]\nisolation = \"thread\"\n")
		_, err := workerconfig.Load(path)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("separation.isolation"))
	})

	It("rejects a catalog entry for an unknown backend", func() {
		write("[[models.catalog]]\nkind = \"spleeter\"\nname = \"x\"\nweights_url = \"a\"\nconfig_url = \"b\"\n")
		_, err := workerconfig.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("lets the reaper be switched off", func() {
		write("[reaper]\nenabled = false\nthreshold_minutes = 0\n")
		cfg := ExpectSuccess(workerconfig.Load(path))
		Expect(cfg.Reaper.Enabled).To(BeFalse())
	})

	It("fails on a missing file", func() {
		_, err := workerconfig.Load(filepath.Join(GinkgoT().TempDir(), "missing.toml"))
		Expect(err).To(HaveOccurred())
	})
})
