package descriptor

// Entry is a single-key mapping from the descriptor: a task name bound either
// to a shell snippet (string) or to an ordered list of further items.
//
// List items are one of Entry (single-key mapping), string (anonymous leaf),
// Mapping (a mapping with zero or several keys) or Unsupported. The loader
// keeps malformed shapes instead of rejecting them so the task builder can
// report them with the qualified task name they belong to.
type Entry struct {
	Name        string
	Description string
	Value       any
	Line        int
}

// Mapping is a mapping node that does not have exactly one key.
type Mapping struct {
	Entries []Entry
	Line    int
}

// Unsupported describes a node shape that can never form a task.
type Unsupported struct {
	Shape string
	Line  int
}

// Document is a loaded task descriptor.
type Document struct {
	Path        string
	Description string
	Entries     []Entry
}
