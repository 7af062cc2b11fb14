package storagepath_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/storagepath"
)

var _ = Describe("Generator", func() {
	It("escapes every segment of the key", func() {
		generator := storagepath.Generator{Host: "https://storage.googleapis.com/", Bucket: "stems"}
		key := storagepath.JobOutputKey("job-1", "Artist - Song (vocals) [flac].flac")

		Expect(generator.GeneratePath(key)).To(Equal(
			"https://storage.googleapis.com/stems/jobs/job-1/Artist%20-%20Song%20%28vocals%29%20%5Bflac%5D.flac"))
	})

	It("lays out source keys under the source id", func() {
		Expect(storagepath.SourceMetadataKey("abc")).To(Equal("sources/abc/source.json"))
		Expect(storagepath.SourceAudioKey("abc", "original.mp3")).To(Equal("sources/abc/original.mp3"))
	})

	It("keeps every output of a job under one prefix", func() {
		prefix := storagepath.JobOutputPrefix("job-1")
		Expect(prefix).To(Equal("jobs/job-1/"))
		Expect(storagepath.JobOutputKey("job-1", "a.mp3")).To(HavePrefix(prefix))
		Expect(storagepath.JobOutputKey("job-10", "a.mp3")).NotTo(HavePrefix(prefix))
	})
})
