package main

import (
	"fmt"
	"strings"

	"github.com/orrn/printgate/internal/config"
	"github.com/orrn/printgate/internal/core"
	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/snmpstatus"
	"github.com/orrn/printgate/internal/spooler"
	"github.com/orrn/printgate/internal/spooler/ipp"
	"github.com/orrn/printgate/internal/spooler/memspool"
	"github.com/orrn/printgate/internal/spooler/winspool"
)

func newSpooler(c config.SpoolerConfig, log logger.Logger) (spooler.Spooler, error) {
	switch strings.ToLower(c.Driver) {
	case "memory":
		mem := memspool.New()
		for _, p := range c.Memory.Printers {
			mem.AddPrinter(spooler.Printer{
				Name:            p.Name,
				Port:            p.Port,
				Driver:          p.Driver,
				Location:        p.Location,
				Description:     p.Description,
				DefaultDataType: p.DefaultDataType,
				Shared:          p.Shared,
				Local:           true,
				SpoolEnabled:    true,
			})
		}
		return mem, nil
	case "ipp":
		return ipp.New(ipp.Config{
			Host:               c.IPP.Host,
			Port:               c.IPP.Port,
			UseTLS:             c.IPP.UseTLS,
			InsecureSkipVerify: c.IPP.InsecureSkipVerify,
			User:               c.IPP.User,
			Password:           c.IPP.Password,
			RequestingUser:     c.IPP.RequestingUser,
			Timeout:            c.IPP.Timeout,
		}, log), nil
	case "winspool":
		return winspool.New(log)
	default:
		return nil, fmt.Errorf("unknown spooler driver %q", c.Driver)
	}
}

// newService builds the core service for the configured spooler, with SNMP
// enrichment when enabled.
func newService(c *config.Config, log logger.Logger) (*core.Service, error) {
	sp, err := newSpooler(c.Spooler, log)
	if err != nil {
		return nil, err
	}

	var prober core.StatusProber
	if c.SNMP.Enabled {
		prober = snmpstatus.New(snmpstatus.Config{
			Community: c.SNMP.Community,
			Port:      c.SNMP.Port,
			Timeout:   c.SNMP.Timeout,
		}, log)
	}

	log.Info().Str("spooler", sp.Name()).Bool("snmp", c.SNMP.Enabled).Msg("Spooler ready")
	return core.NewService(sp, prober, log), nil
}
