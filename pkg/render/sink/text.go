package sink

import (
	"bytes"
	"encoding/xml"
)

// escape makes a string safe for SVG text and attribute content.
func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
