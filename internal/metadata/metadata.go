// Package metadata decodes the 32-bit metadata value encoded along the
// bottom row of timing marks on a ballot page, and distinguishes a front
// page's metadata from a back page's.
package metadata

import (
	"fmt"
	"math/bits"

	"ballotscan/pkg/geometry"
)

// BitCount is the number of metadata bits encoded along the bottom
// timing-mark row.
const BitCount = 32

// EnderCode is the fixed 11-bit sentinel that terminates a back page's
// metadata and has no analogue on a front page; its presence (or absence)
// is what disambiguates the two page kinds.
var EnderCode = [11]bool{false, true, true, true, true, false, true, true, true, true, false}

// Side identifies which physical page a decoded metadata value describes.
type Side int

const (
	SideFront Side = iota
	SideBack
)

// Page is the sum type produced by decoding a bottom timing-mark row: it is
// exactly one of Front or Back. Use the Side field to discriminate.
type Page struct {
	Side  Side
	Front Front
	Back  Back
}

// Front is the metadata encoded along the bottom of a ballot's front page.
type Front struct {
	Bits                  [BitCount]bool
	Mod4Checksum          uint8
	ComputedMod4Checksum  uint8
	BatchOrPrecinctNumber uint16
	CardNumber            uint16
	SequenceNumber        uint8
	StartBit              bool
}

// Back is the metadata encoded along the bottom of a ballot's back page.
type Back struct {
	Bits             [BitCount]bool
	ElectionDay      uint8
	ElectionMonth    uint8
	ElectionYear     uint8
	ElectionType     rune // 'A' + a 5-bit index
	EnderCode        [11]bool
	ExpectedEnderCode [11]bool
}

// Error is the metadata decoding error taxonomy. Exactly one of the typed
// fields is populated, matching Kind.
type Error struct {
	Kind ErrorKind

	// ValueOutOfRange / InvalidChecksum / AmbiguousMetadata detail.
	Message string

	// InvalidTimingMarkCount detail.
	Expected, Actual int

	// InvalidEnderCode detail.
	GotEnderCode, WantEnderCode [11]bool
}

// ErrorKind enumerates the ways metadata decoding can fail.
type ErrorKind int

const (
	ErrValueOutOfRange ErrorKind = iota
	ErrInvalidChecksum
	ErrInvalidEnderCode
	ErrInvalidTimingMarkCount
	ErrAmbiguousMetadata
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidTimingMarkCount:
		return fmt.Sprintf("metadata: expected %d bottom timing marks, found %d", e.Expected, e.Actual)
	case ErrInvalidEnderCode:
		return fmt.Sprintf("metadata: ender code mismatch: got %v, want %v", e.GotEnderCode, e.WantEnderCode)
	default:
		return "metadata: " + e.Message
	}
}

// ComputeBitsFromBottomTimingMarks reconstructs the 32-bit metadata value
// from the bottom timing-mark row. complete is the full, gap-filled row of
// timing marks (including any the completion step synthesized); detected is
// the subset of those marks that were actually found by contour detection,
// in the same left-to-right order.
//
// The walk proceeds right-to-left, skipping the rightmost mark of each
// slice (a fixed clock mark carrying no data), then visits one bit position
// per complete mark for the next BitCount marks, so the leftmost complete
// mark is not read: a bit is true exactly where a complete mark coincides
// with a detected one.
func ComputeBitsFromBottomTimingMarks(detected, complete []geometry.RectInt) ([BitCount]bool, error) {
	var out [BitCount]bool

	if len(complete) != 34 {
		return out, &Error{Kind: ErrInvalidTimingMarkCount, Expected: 34, Actual: len(complete)}
	}
	if len(detected) < 2 {
		return out, &Error{Kind: ErrInvalidTimingMarkCount, Expected: 2, Actual: len(detected)}
	}

	// Walk both sequences from right to left, dropping the trailing clock mark.
	ci := len(complete) - 2
	di := len(detected) - 2

	for bit := 0; bit < BitCount && ci >= 0; bit++ {
		if di >= 0 && complete[ci] == detected[di] {
			out[bit] = true
			di--
		}
		ci--
	}

	return out, nil
}

// bitsToUint folds a little-endian slice of bits (bit i has weight 1<<i)
// into an unsigned integer.
func bitsToUint(bits []bool) uint32 {
	var v uint32
	for i, b := range bits {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}

// DecodeFront interprets a 32-bit metadata value as front-page metadata.
func DecodeFront(b [BitCount]bool) (Front, error) {
	f := Front{Bits: b}

	f.ComputedMod4Checksum = uint8(bits.OnesCount32(bitsToUint(b[2:])) % 4)
	f.Mod4Checksum = uint8(bitsToUint(b[0:2]))
	f.BatchOrPrecinctNumber = uint16(bitsToUint(b[2:15]))
	f.CardNumber = uint16(bitsToUint(b[15:28]))
	f.SequenceNumber = uint8(bitsToUint(b[28:31]))
	f.StartBit = b[31]

	if f.Mod4Checksum != f.ComputedMod4Checksum {
		return f, &Error{Kind: ErrInvalidChecksum, Message: fmt.Sprintf(
			"front metadata checksum mismatch: encoded %d, computed %d", f.Mod4Checksum, f.ComputedMod4Checksum)}
	}
	if !f.StartBit {
		return f, &Error{Kind: ErrValueOutOfRange, Message: "front metadata start bit must be 1"}
	}
	return f, nil
}

// DecodeBack interprets a 32-bit metadata value as back-page metadata.
func DecodeBack(b [BitCount]bool) (Back, error) {
	bk := Back{Bits: b, ExpectedEnderCode: EnderCode}

	bk.ElectionDay = uint8(bitsToUint(b[0:5]))
	bk.ElectionMonth = uint8(bitsToUint(b[5:9]))
	bk.ElectionYear = uint8(bitsToUint(b[9:16]))
	bk.ElectionType = rune('A' + bitsToUint(b[16:21]))
	copy(bk.EnderCode[:], b[21:32])

	if bk.EnderCode != EnderCode {
		return bk, &Error{Kind: ErrInvalidEnderCode, GotEnderCode: bk.EnderCode, WantEnderCode: EnderCode}
	}
	return bk, nil
}

// Decode tries both front and back interpretations of a bit sequence and
// returns whichever succeeds. If both succeed, the bits are ambiguous; if
// both fail, the front decode's error is returned (matching the reference
// pipeline's tie-break).
func Decode(b [BitCount]bool) (Page, error) {
	front, frontErr := DecodeFront(b)
	back, backErr := DecodeBack(b)

	switch {
	case frontErr == nil && backErr == nil:
		return Page{}, &Error{Kind: ErrAmbiguousMetadata, Message: "bits decode successfully as both front and back metadata"}
	case frontErr == nil:
		return Page{Side: SideFront, Front: front}, nil
	case backErr == nil:
		return Page{Side: SideBack, Back: back}, nil
	default:
		return Page{}, frontErr
	}
}
