package proxy

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Character offsets on the wire are UTF-16 code units; Go strings are
// UTF-8 bytes. These helpers convert along a single line, which is all
// the proxy needs since views are line buffers.

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// utf16ToByteOffset converts a UTF-16 code unit offset into a byte
// offset within s. Offsets past the end clamp to len(s); an offset
// landing inside a surrogate pair snaps to the start of the rune.
func utf16ToByteOffset(s string, off int) int {
	if off <= 0 {
		return 0
	}
	units := 0
	for i, r := range s {
		if units >= off {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(s)
}

// byteToUTF16Offset converts a byte offset within s into a UTF-16 code
// unit offset. Offsets inside a rune snap to the rune start.
func byteToUTF16Offset(s string, off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(s) {
		off = len(s)
	}
	units := 0
	for i := 0; i < off; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if i+size > off {
			break
		}
		units += utf16.RuneLen(r)
		i += size
	}
	return units
}

// comparePositions orders two positions: -1, 0, or 1.
func comparePositions(a, b Position) int {
	if a.Line != b.Line {
		if a.Line < b.Line {
			return -1
		}
		return 1
	}
	switch {
	case a.Character < b.Character:
		return -1
	case a.Character > b.Character:
		return 1
	}
	return 0
}
