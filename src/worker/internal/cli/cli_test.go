package cli_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/cli"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/workerconfig"
)

var _ = Describe("Worker CLI", func() {
	var (
		workingDir string
		stdout     *bytes.Buffer
		stderr     *bytes.Buffer
		deployed   bool
	)

	execute := func(args ...string) error {
		root := cli.NewRootCommand(cli.Options{
			Deployment: func(worker workerconfig.Config) application.Config {
				deployed = true
				return application.Config{Worker: worker}
			},
			Local: func(worker workerconfig.Config) application.Config {
				return application.Config{
					FFmpegPath:     "ffmpeg",
					WorkingDirPath: workingDir,
					Worker:         worker,
				}
			},
		})
		root.SetOut(stdout)
		root.SetErr(stderr)
		root.SetArgs(args)
		return root.Execute()
	}

	BeforeEach(func() {
		workingDir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		deployed = false
	})

	Describe("models ls", func() {
		It("lists the builtin model of every backend", func() {
			Expect(execute("models", "ls", "--config", "")).To(Succeed())

			output := stdout.String()
			Expect(output).To(ContainSubstring("BACKEND"))
			Expect(output).To(ContainSubstring("PINNED"))
			Expect(output).To(ContainSubstring("baseline"))
			Expect(output).To(ContainSubstring("windowed-multiband"))
			Expect(output).To(ContainSubstring("iterative-refinement"))
			Expect(output).To(ContainSubstring("ensemble"))
			Expect(output).To(ContainSubstring("vocals, drums, bass, other, guitar, piano"))
			Expect(output).To(ContainSubstring("builtin"))
			Expect(output).To(ContainSubstring("yes"))
			Expect(output).NotTo(MatchRegexp(`\bno\b`))
			Expect(output).To(ContainSubstring("Cache: " + filepath.Join(workingDir, "models")))
			Expect(deployed).To(BeFalse())
		})

		It("shows a model configured in the worker config", func() {
			path := filepath.Join(GinkgoT().TempDir(), "worker.toml")
			Expect(os.WriteFile(path, []byte(`
[models]
dir = "/var/models"

[[models.catalog]]
kind = "ensemble"
name = "ensemble-large"
weights_url = "https://models.example.com/ensemble-large.weights"
weights_sha256 = "abc123"
config_url = "https://models.example.com/ensemble-large.yaml"
`), 0o644)).To(Succeed())

			Expect(execute("models", "ls", "--config", path)).To(Succeed())

			output := stdout.String()
			Expect(output).To(ContainSubstring("ensemble-large"))
			Expect(output).To(ContainSubstring("https://models.example.com/ensemble-large.weights"))
			Expect(output).To(ContainSubstring("yes"))
			Expect(output).To(ContainSubstring("Cache: /var/models"))
		})

		It("fails on an invalid worker config", func() {
			path := filepath.Join(GinkgoT().TempDir(), "worker.toml")
			Expect(os.WriteFile(path, []byte("[queues]\nunknown_setting = 1\n"), 0o644)).To(Succeed())

			Expect(execute("models", "ls", "--config", path)).NotTo(Succeed())
		})
	})

	Describe("separate", func() {
		var input string

		BeforeEach(func() {
			input = filepath.Join(GinkgoT().TempDir(), "song.wav")
			Expect(os.WriteFile(input, []byte("not really audio"), 0o644)).To(Succeed())
		})

		It("needs exactly one input file", func() {
			Expect(execute("separate", "--config", "")).NotTo(Succeed())
		})

		It("rejects parameters that are not a JSON object", func() {
			err := execute("separate", input, "--config", "", "--params", "[1, 2]")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Backend parameters are not a JSON object"))
		})

		It("rejects an unknown backend", func() {
			err := execute("separate", input, "--config", "", "--backend", "karaoke")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("karaoke"))
		})

		It("rejects an unknown stem before separating", func() {
			err := execute("separate", input, "--config", "", "--variant", "static", "--stems", "kazoo")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("kazoo"))
			Expect(deployed).To(BeFalse())
		})
	})
})
