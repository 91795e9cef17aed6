package driver

import (
	"os"
	"testing"

	"pixelwatch/internal/testsupport"
)

func TestMain(m *testing.M) {
	testsupport.RunFakeDriverIfRequested()
	os.Exit(m.Run())
}
