package snapshot

// Sentinel is the single-character placeholder recorded for every descriptive
// field of an entry whose status lookup failed. It is distinct from any valid
// owner, group, mode or type string.
const Sentinel = "-"

// EntryKind classifies a filesystem entry.
type EntryKind int

const (
	Directory EntryKind = iota
	File
	Unknown
)

// Convert EntryKind to String
func (k EntryKind) String() string {
	switch k {
	case Directory:
		return "directory"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// Map string to EntryKind
func StringToEntryKind(s string) EntryKind {
	switch s {
	case "directory":
		return Directory
	case "file":
		return File
	default:
		return Unknown
	}
}

// FileSystemEntry is one record per visited path. Either all five descriptive
// fields carry resolved values or all of them carry the sentinel; partial
// states are never produced.
type FileSystemEntry struct {
	Path         string    `json:"path"`
	Kind         EntryKind `json:"kind"`
	Owner        string    `json:"owner"`
	Group        string    `json:"group"`
	ModeOctal    string    `json:"mode_octal"`
	ModeSymbolic string    `json:"mode_symbolic"`
}

// NewSentinelEntry builds the record for a path whose status lookup failed.
func NewSentinelEntry(path string) FileSystemEntry {
	return FileSystemEntry{
		Path:         path,
		Kind:         Unknown,
		Owner:        Sentinel,
		Group:        Sentinel,
		ModeOctal:    Sentinel,
		ModeSymbolic: Sentinel,
	}
}

// IsSentinel reports whether every descriptive field carries the sentinel.
func (e FileSystemEntry) IsSentinel() bool {
	return e.Kind == Unknown &&
		e.Owner == Sentinel &&
		e.Group == Sentinel &&
		e.ModeOctal == Sentinel &&
		e.ModeSymbolic == Sentinel
}

// KindString returns the serialized kind, substituting the sentinel for
// unknown entries so the persisted record stays fully sentinel-consistent.
func (e FileSystemEntry) KindString() string {
	if e.Kind == Unknown {
		return Sentinel
	}
	return e.Kind.String()
}
