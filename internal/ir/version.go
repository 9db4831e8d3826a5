package ir

// Version constants for the chain wire format and the tool.
const (
	// FormatVersion is the wire format version. Encoded documents carry no
	// version field; a breaking change gets a new hash domain instead.
	FormatVersion = "1"

	// ToolVersion is the querychain release version.
	ToolVersion = "0.1.0"
)
