package render

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// escapeXML escapes text for inclusion in SVG markup. Characters that are
// not valid in an XML document are dropped first.
func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(sanitizeText(s)))
	return buf.String()
}

// sanitizeText removes characters the XML spec forbids in character data.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r != 0x7f:
			return r
		}
		return -1
	}, s)
}
