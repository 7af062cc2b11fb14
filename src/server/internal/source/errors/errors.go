package sourceerrors

import (
	"github.com/veedubyou/stemsplit-be/src/server/internal/errors/api"
)

const (
	SourceNotFoundCode = api.ErrorCode("source_not_found")
	BadSourceDataCode  = api.ErrorCode("bad_source_data")
)
