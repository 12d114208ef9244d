package ipp

import (
	"strconv"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"

	"github.com/orrn/printgate/internal/spooler"
)

const printerTypeRemote = 0x2

func findAttr(attrs goipp.Attributes, name string) string {
	for _, attr := range attrs {
		if attr.Name == name && len(attr.Values) > 0 {
			return attr.Values[0].V.String()
		}
	}
	return ""
}

func attrStrings(attrs goipp.Attributes, name string) []string {
	for _, attr := range attrs {
		if attr.Name != name {
			continue
		}
		out := make([]string, 0, len(attr.Values))
		for _, v := range attr.Values {
			out = append(out, v.V.String())
		}
		return out
	}
	return nil
}

func attrInt(attrs goipp.Attributes, name string, fallback int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(findAttr(attrs, name))); err == nil {
		return n
	}
	return fallback
}

func attrBool(attrs goipp.Attributes, name string) bool {
	return strings.EqualFold(findAttr(attrs, name), "true")
}

// groupsOf returns every group with the given tag. Replies decoded from the
// wire carry them in Groups; the single-group fields cover older encoders.
func groupsOf(msg *goipp.Message, tag goipp.Tag) []goipp.Attributes {
	var out []goipp.Attributes
	for _, g := range msg.Groups {
		if g.Tag == tag {
			out = append(out, g.Attrs)
		}
	}
	if len(out) > 0 {
		return out
	}
	switch tag {
	case goipp.TagPrinterGroup:
		if len(msg.Printer) > 0 {
			out = append(out, msg.Printer)
		}
	case goipp.TagJobGroup:
		if len(msg.Job) > 0 {
			out = append(out, msg.Job)
		}
	}
	return out
}

func properties(attrs goipp.Attributes) map[string]any {
	props := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		switch len(attr.Values) {
		case 0:
		case 1:
			props[attr.Name] = attr.Values[0].V.String()
		default:
			vals := make([]string, 0, len(attr.Values))
			for _, v := range attr.Values {
				vals = append(vals, v.V.String())
			}
			props[attr.Name] = vals
		}
	}
	return props
}

func printerFromAttrs(attrs goipp.Attributes) spooler.Printer {
	return spooler.Printer{
		Name:            findAttr(attrs, "printer-name"),
		Port:            findAttr(attrs, "device-uri"),
		Driver:          findAttr(attrs, "printer-make-and-model"),
		DeviceID:        findAttr(attrs, "printer-device-id"),
		Shared:          attrBool(attrs, "printer-is-shared"),
		DefaultDataType: dataTypeForFormat(findAttr(attrs, "document-format-default")),
		Local:           attrInt(attrs, "printer-type", 0)&printerTypeRemote == 0,
		SpoolEnabled:    attrBool(attrs, "printer-is-accepting-jobs"),
		Location:        findAttr(attrs, "printer-location"),
		Description:     findAttr(attrs, "printer-info"),
		Properties:      properties(attrs),
	}
}

func jobFromAttrs(attrs goipp.Attributes, position int) spooler.Job {
	name := findAttr(attrs, "job-name")
	doc := findAttr(attrs, "document-name-supplied")
	if doc == "" {
		doc = name
	}

	j := spooler.Job{
		ID:           findAttr(attrs, "job-id"),
		Name:         name,
		DocumentName: doc,
		Priority:     position,
	}
	if ts := attrInt(attrs, "time-at-creation", 0); ts > 0 {
		j.SubmittedAt = time.Unix(int64(ts), 0).UTC()
	}

	applyJobState(&j, attrInt(attrs, "job-state", 3), attrStrings(attrs, "job-state-reasons"))
	return j
}

// format names for the document-format attribute
const (
	formatRaw   = "application/vnd.cups-raw"
	formatText  = "text/plain"
	formatOctet = "application/octet-stream"
)

// documentFormat maps a spool data type to the document-format sent with
// Send-Document. Anything unrecognized is left for the server to detect.
func documentFormat(dataType string) string {
	dt := strings.ToUpper(strings.TrimSpace(dataType))
	switch {
	case dt == "TEXT":
		return formatText
	case strings.HasPrefix(dt, "RAW"):
		return formatRaw
	default:
		return formatOctet
	}
}

func dataTypeForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatText:
		return "TEXT"
	default:
		return "RAW"
	}
}
