// Package snmpstatus reads live device state from network printers over
// SNMP (Host Resources MIB) and maps it onto queue status flags.
package snmpstatus

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

const (
	oidPrinterStatus     = ".1.3.6.1.2.1.25.3.5.1.1.1"
	oidPrinterErrorState = ".1.3.6.1.2.1.25.3.5.1.2.1"
)

// hrPrinterStatus values.
const (
	printerStatusOther    = 1
	printerStatusIdle     = 3
	printerStatusPrinting = 4
	printerStatusWarmup   = 5
)

// hrPrinterDetectedErrorState bits. Bit 0 is the high bit of the first octet.
const (
	bitLowPaper = iota
	bitNoPaper
	bitLowToner
	bitNoToner
	bitDoorOpen
	bitJammed
	bitOffline
	bitServiceRequested
	bitInputTrayMissing
	bitOutputTrayMissing
	bitMarkerSupplyMissing
	bitOutputNearFull
	bitOutputFull
	bitInputTrayEmpty
	bitOverduePreventMaint
)

type Config struct {
	Community string
	Port      uint16
	Timeout   time.Duration
}

// GetFunc fetches oids from host.
type GetFunc func(ctx context.Context, host string, oids []string) ([]gosnmp.SnmpPDU, error)

type Prober struct {
	get GetFunc
	log logger.Logger
}

func New(cfg Config, log logger.Logger) *Prober {
	if cfg.Community == "" {
		cfg.Community = "public"
	}
	if cfg.Port == 0 {
		cfg.Port = 161
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return NewWithGetter(snmpGet(cfg), log)
}

func NewWithGetter(get GetFunc, log logger.Logger) *Prober {
	return &Prober{get: get, log: log.WithComponent("snmp")}
}

func snmpGet(cfg Config) GetFunc {
	return func(ctx context.Context, host string, oids []string) ([]gosnmp.SnmpPDU, error) {
		params := &gosnmp.GoSNMP{
			Context:   ctx,
			Target:    host,
			Port:      cfg.Port,
			Community: cfg.Community,
			Version:   gosnmp.Version2c,
			Timeout:   cfg.Timeout,
			Retries:   1,
		}
		if err := params.Connect(); err != nil {
			return nil, err
		}
		defer params.Conn.Close()

		pkt, err := params.Get(oids)
		if err != nil {
			return nil, err
		}
		return pkt.Variables, nil
	}
}

// Probe reports device flags for the printer behind port. ok is false when
// port does not name a network host or the device does not answer.
func (p *Prober) Probe(ctx context.Context, port string) (spooler.QueueStatus, bool) {
	host := HostFromPort(port)
	if host == "" {
		return spooler.QueueStatus{}, false
	}

	pdus, err := p.get(ctx, host, []string{oidPrinterStatus, oidPrinterErrorState})
	if err != nil {
		p.log.Debug().Err(err).Str("host", host).Msg("SNMP probe failed")
		return spooler.QueueStatus{}, false
	}

	var st spooler.QueueStatus
	seen := false
	for _, pdu := range pdus {
		switch strings.TrimPrefix(pdu.Name, ".") {
		case oidPrinterStatus[1:]:
			if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance {
				continue
			}
			seen = true
			switch int(gosnmp.ToBigInt(pdu.Value).Int64()) {
			case printerStatusPrinting, printerStatusWarmup:
				st.Printing = true
				st.Busy = true
			case printerStatusOther:
				st.InError = true
			}
		case oidPrinterErrorState[1:]:
			b, ok := pdu.Value.([]byte)
			if !ok {
				continue
			}
			seen = true
			st = st.Merge(DecodeErrorState(b))
		}
	}
	return st, seen
}

// DecodeErrorState maps an hrPrinterDetectedErrorState octet string onto
// queue flags.
func DecodeErrorState(b []byte) spooler.QueueStatus {
	set := func(bit int) bool {
		i := bit / 8
		if i >= len(b) {
			return false
		}
		return b[i]&(0x80>>(bit%8)) != 0
	}

	st := spooler.QueueStatus{
		PaperOut:    set(bitNoPaper) || set(bitInputTrayEmpty),
		TonerLow:    set(bitLowToner) || set(bitNoToner),
		DoorOpen:    set(bitDoorOpen),
		PaperJammed: set(bitJammed),
		Offline:     set(bitOffline),
		NeedUserIntervention: set(bitServiceRequested) || set(bitInputTrayMissing) ||
			set(bitOutputTrayMissing) || set(bitMarkerSupplyMissing) || set(bitOutputFull),
	}
	st.InError = st.PaperOut || st.PaperJammed || st.DoorOpen || set(bitNoToner) || set(bitMarkerSupplyMissing)
	return st
}

// HostFromPort extracts a network host from a port name such as
// "IP_10.0.0.5", "socket://printer:9100" or "ipp://host/printers/x".
// It returns "" for local ports like "USB001" or "LPT1:".
func HostFromPort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToUpper(port), "IP_") {
		host := port[3:]
		if i := strings.LastIndexByte(host, '_'); i > 0 {
			if _, err := strconv.Atoi(host[i+1:]); err == nil {
				host = host[:i]
			}
		}
		if net.ParseIP(host) == nil {
			return ""
		}
		return host
	}

	u, err := url.Parse(port)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "socket", "ipp", "ipps", "lpd", "http", "https":
		return u.Hostname()
	}
	return ""
}
