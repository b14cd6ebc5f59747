package node

import "strings"

// TextFormat is a bitmask of inline text formats.
type TextFormat uint32

// Text formats.
const (
	FormatBold TextFormat = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
	FormatSubscript
	FormatSuperscript
	FormatHighlight
)

var textFormatNames = []struct {
	f    TextFormat
	name string
}{
	{FormatBold, "bold"},
	{FormatItalic, "italic"},
	{FormatStrikethrough, "strikethrough"},
	{FormatUnderline, "underline"},
	{FormatCode, "code"},
	{FormatSubscript, "subscript"},
	{FormatSuperscript, "superscript"},
	{FormatHighlight, "highlight"},
}

// Has reports whether all bits of f2 are set.
func (f TextFormat) Has(f2 TextFormat) bool {
	return f&f2 == f2
}

// Toggle flips the given format. Subscript and superscript are exclusive.
func (f TextFormat) Toggle(f2 TextFormat) TextFormat {
	out := f ^ f2
	switch {
	case f2 == FormatSubscript && out.Has(FormatSubscript):
		out &^= FormatSuperscript
	case f2 == FormatSuperscript && out.Has(FormatSuperscript):
		out &^= FormatSubscript
	}
	return out
}

// Names returns the names of the set formats in a stable order.
func (f TextFormat) Names() []string {
	var names []string
	for _, tf := range textFormatNames {
		if f.Has(tf.f) {
			names = append(names, tf.name)
		}
	}
	return names
}

// String returns the set format names joined by "|".
func (f TextFormat) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseTextFormat returns the format bit for a name.
func ParseTextFormat(name string) (TextFormat, bool) {
	for _, tf := range textFormatNames {
		if tf.name == name {
			return tf.f, true
		}
	}
	return 0, false
}

// TextMode controls how a text node behaves under editing.
type TextMode uint8

const (
	// ModeNormal text can be edited and merged freely.
	ModeNormal TextMode = iota

	// ModeToken text is edited as a single unit and never merged.
	ModeToken

	// ModeSegmented text is deleted a segment (space separated word) at a time.
	ModeSegmented

	// ModeInert text is not editable and not selectable.
	ModeInert
)

// String returns the serialized mode name.
func (m TextMode) String() string {
	switch m {
	case ModeToken:
		return "token"
	case ModeSegmented:
		return "segmented"
	case ModeInert:
		return "inert"
	default:
		return "normal"
	}
}

// ParseTextMode parses a serialized mode name. Unknown names map to normal.
func ParseTextMode(s string) TextMode {
	switch s {
	case "token":
		return ModeToken
	case "segmented":
		return ModeSegmented
	case "inert":
		return ModeInert
	default:
		return ModeNormal
	}
}

// TextDetail is a bitmask of text node behaviour flags.
type TextDetail uint8

const (
	// DetailDirectionless text is ignored when computing block direction.
	DetailDirectionless TextDetail = 1 << iota

	// DetailUnmergeable text is never merged with its siblings.
	DetailUnmergeable
)

// ElementFormat is the block alignment of an element.
type ElementFormat uint8

// Element alignments.
const (
	AlignNone ElementFormat = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
	AlignStart
	AlignEnd
)

// String returns the serialized alignment name.
func (f ElementFormat) String() string {
	switch f {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	case AlignStart:
		return "start"
	case AlignEnd:
		return "end"
	default:
		return ""
	}
}

// ParseElementFormat parses a serialized alignment name.
func ParseElementFormat(s string) ElementFormat {
	switch s {
	case "left":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	case "justify":
		return AlignJustify
	case "start":
		return AlignStart
	case "end":
		return AlignEnd
	default:
		return AlignNone
	}
}

// Direction is the writing direction of a block.
type Direction uint8

// Writing directions.
const (
	DirNone Direction = iota
	DirLTR
	DirRTL
)

// String returns "ltr", "rtl" or "" for no direction.
func (d Direction) String() string {
	switch d {
	case DirLTR:
		return "ltr"
	case DirRTL:
		return "rtl"
	default:
		return ""
	}
}

// ParseDirection parses "ltr" or "rtl".
func ParseDirection(s string) Direction {
	switch s {
	case "ltr":
		return DirLTR
	case "rtl":
		return DirRTL
	default:
		return DirNone
	}
}
