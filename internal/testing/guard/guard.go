// Package guard flips the process into test mode when blank-imported, so
// binaries exercised from tests never dial Postgres, Redis or Gemini.
package guard

import "os"

func init() {
	if os.Getenv("CATALOG_TEST_MODE") == "" {
		_ = os.Setenv("CATALOG_TEST_MODE", "1")
	}
}
