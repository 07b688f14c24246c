package ir

// Version constants for the document model and compiler.
const (
	// SchemaVersion is the version of the canonical document description
	// produced by Describe.
	SchemaVersion = "1"

	// CompilerVersion is the taxi compiler version.
	CompilerVersion = "0.1.0"
)
