package command

// Empty is the payload of commands that carry no data.
type Empty struct{}

// MovePayload describes a caret movement. Unit is one of "character",
// "word", "line" or "document".
type MovePayload struct {
	Extend   bool
	Backward bool
	Unit     string
}

// Built-in commands.
var (
	SelectionChange = New[Empty]("SELECTION_CHANGE")
	InsertText      = New[string]("CONTROLLED_TEXT_INSERTION")
	Paste           = New[string]("PASTE")
	InsertLineBreak = New[bool]("INSERT_LINE_BREAK")
	InsertParagraph = New[Empty]("INSERT_PARAGRAPH")
	DeleteCharacter = New[bool]("DELETE_CHARACTER")
	DeleteWord      = New[bool]("DELETE_WORD")
	DeleteLine      = New[bool]("DELETE_LINE")
	FormatText      = New[string]("FORMAT_TEXT")
	Move            = New[MovePayload]("MOVE_SELECTION")
	SelectAll       = New[Empty]("SELECT_ALL")
	ClearEditor     = New[Empty]("CLEAR_EDITOR")
	Undo            = New[Empty]("UNDO")
	Redo            = New[Empty]("REDO")
	CanUndo         = New[bool]("CAN_UNDO")
	CanRedo         = New[bool]("CAN_REDO")
	Focus           = New[Empty]("FOCUS")
	Blur            = New[Empty]("BLUR")
)
