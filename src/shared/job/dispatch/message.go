package dispatch

const (
	SeparateJobType   = "separate_job"
	ImportSourceType  = "import_source"
	PurgeJobFilesType = "purge_job_files"
	CancelJobType     = "cancel_job"
)

type SeparateJobParams struct {
	JobID string `json:"job_id"`
}

type CancelJobParams struct {
	JobID string `json:"job_id"`
}

// PurgeJobFilesParams carries everything needed after the job record is gone.
type PurgeJobFilesParams struct {
	JobID      string   `json:"job_id"`
	OutputKeys []string `json:"output_keys"`
}

type ImportSourceParams struct {
	SourceID string `json:"source_id"`
	URL      string `json:"url"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
}
