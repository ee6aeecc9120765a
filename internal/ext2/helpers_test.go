package ext2

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
)

// errCause unwraps a pkg/errors-wrapped error to its root cause so tests
// can compare against the package's sentinel errors.
func errCause(err error) error {
	return errors.Cause(err)
}

func readFileBytes(path string) ([]byte, error) {
	return ioutil.ReadFile(path)
}

func removeIfExists(path string) {
	_ = os.Remove(path)
}
