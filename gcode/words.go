package gcode

// ModalGroup names one of the NIST RS274-NGC §3.4 modal groups. At most one
// command per group may appear in a single block; the parser's word-ingest
// phase uses the Group bitset below to detect a second command landing in
// an already-occupied group.
type ModalGroup uint

const (
	ModalGroupNonModal     ModalGroup = iota // G4, G10, G28, G30, G53, G92, G92.1
	ModalGroupMotion                         // G0, G1, G2, G3, G38.2, G80
	ModalGroupPlane                          // G17, G18, G19
	ModalGroupDistance                       // G90, G91
	ModalGroupArcDistance                    // G91.1
	ModalGroupFeedRateMode                   // G93, G94
	ModalGroupUnits                          // G20, G21
	ModalGroupCutterComp                     // G40
	ModalGroupToolLength                     // G43.1, G49
	ModalGroupCoordSystem                    // G54..G59
	ModalGroupProgramFlow                    // M0, M1, M2, M30
	ModalGroupSpindle                        // M3, M4, M5
	ModalGroupCoolant                        // M7, M8, M9
	modalGroupCount
)

// modalGroupBit returns a one-bit-per-group mask used to record which
// groups were assigned this block (grbl uses raw word_bit bitmasks; a
// bitset of ModalGroup values serves the same purpose and lets the
// compiler enumerate groups).
func modalGroupBit(g ModalGroup) uint32 { return 1 << uint(g) }

// Word identifies a value letter carried by a block (F, I, J, K, L, N, P, R,
// X, Y, Z). Axis letters double as both value words and the axis-words
// bitset tested throughout Phase 3.
type Word uint

const (
	WordF Word = iota
	WordI
	WordJ
	WordK
	WordL
	WordN
	WordP
	WordR
	WordX
	WordY
	WordZ
	wordCount
)

func wordBit(w Word) uint32 { return 1 << uint(w) }

func axisWordBit(axis int) uint32 { return 1 << uint(WordX+Word(axis)) }

// Command is a decoded G/M word: the integer part plus a single decimal
// digit of mantissa (G38.2 -> {Letter:'G', Int:38, Tenths:2}). Grbl encodes
// two mantissa digits; this module only ever needs one (the sole
// non-integer G/M words word ingest lets through - G38.2, G92.1, G59.1-3,
// G61.1, G90.1, G91.1 - all carry a single significant decimal digit;
// classify then accepts only G38.2, G92.1 and G61.1 and rejects the rest
// as unsupported), so Tenths is kept as a single digit rather than
// reproducing grbl's hundredths encoding.
type Command struct {
	Letter byte
	Int    int
	Tenths int
}

func (c Command) isInteger() bool { return c.Tenths == 0 }
