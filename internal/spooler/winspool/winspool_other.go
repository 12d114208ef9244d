//go:build !windows

package winspool

import (
	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

func New(log logger.Logger) (spooler.Spooler, error) {
	return nil, spooler.ErrUnsupported
}
