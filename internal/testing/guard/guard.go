// Package guard flips the runtime into test mode when imported from a
// test binary, so main() bootstraps become no-ops under `go test`.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("QUILTFOLK_TEST_MODE") == "" {
			_ = os.Setenv("QUILTFOLK_TEST_MODE", "1")
		}
	})
}
