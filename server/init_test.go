package server

import (
	"testing"

	"github.com/adjudex/adjudex/util"
)

func TestMain(m *testing.M) {
	util.ConfigureTestLogger()
	m.Run()
}
