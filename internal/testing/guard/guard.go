// Package guard forces test mode when blank-imported, keeping the
// entrypoints inert under go test.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PULSEBOARD_TEST_MODE") == "" {
			_ = os.Setenv("PULSEBOARD_TEST_MODE", "1")
		}
	})
}
