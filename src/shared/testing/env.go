package testing

import (
	"os"

	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
)

func SetTestEnv() {
	_ = os.Setenv(envvar.ENVIRONMENT, "test")
}
