package backend

import (
	"github.com/binara/printsvc/internal/domain/printing"
	"golang.org/x/text/encoding/charmap"
)

// escposCodePages maps code page names to their ESC t selector and table
var escposCodePages = map[string]struct {
	selector byte
	table    *charmap.Charmap
}{
	printing.CodePagePC437: {0, charmap.CodePage437},
	printing.CodePagePC850: {2, charmap.CodePage850},
	printing.CodePagePC852: {18, charmap.CodePage852},
	printing.CodePagePC858: {19, charmap.CodePage858},
}

// printableASCII reports whether r is in the printable ASCII range
func printableASCII(r rune) bool {
	return r >= 0x20 && r <= 0x7E
}

// encodeASCII returns text as bytes, failing on the first rune outside
// printable ASCII
func encodeASCII(kind printing.BackendKind, text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	pos := 0
	for _, r := range text {
		if !printableASCII(r) {
			return nil, printing.NewUnsupportedCharacterError(kind, text, r, pos)
		}
		out = append(out, byte(r))
		pos++
	}
	return out, nil
}

// encodeCharmap encodes text into a single-byte table, failing on the first
// rune the table lacks. Control characters are rejected as well.
func encodeCharmap(kind printing.BackendKind, table *charmap.Charmap, text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	pos := 0
	for _, r := range text {
		if r < 0x20 || r == 0x7F {
			return nil, printing.NewUnsupportedCharacterError(kind, text, r, pos)
		}
		if r < 0x7F {
			out = append(out, byte(r))
			pos++
			continue
		}
		b, ok := table.EncodeRune(r)
		if !ok {
			return nil, printing.NewUnsupportedCharacterError(kind, text, r, pos)
		}
		out = append(out, b)
		pos++
	}
	return out, nil
}

// checkCharmap verifies that every rune of text exists in table
func checkCharmap(kind printing.BackendKind, table *charmap.Charmap, text string) error {
	_, err := encodeCharmap(kind, table, text)
	return err
}
