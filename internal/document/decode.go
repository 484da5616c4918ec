package document

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewDecoder returns r decoded to UTF-8. A UTF-8 byte order mark is dropped
// and UTF-16 input with a byte order mark is transcoded; anything else is
// read as UTF-8.
func NewDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
