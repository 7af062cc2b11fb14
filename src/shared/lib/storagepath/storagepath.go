package storagepath

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

type Generator struct {
	Host   string
	Bucket string
}

// GeneratePath is the public URL of an object key. Each path segment is escaped since
// output names carry spaces and brackets.
func (g Generator) GeneratePath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(g.Host, "/"), g.Bucket, strings.Join(segments, "/"))
}

func SourceAudioKey(sourceID string, fileName string) string {
	return path.Join("sources", sourceID, fileName)
}

func SourceMetadataKey(sourceID string) string {
	return path.Join("sources", sourceID, "source.json")
}

func JobOutputKey(jobID string, fileName string) string {
	return path.Join("jobs", jobID, fileName)
}

func JobOutputPrefix(jobID string) string {
	return path.Join("jobs", jobID) + "/"
}
