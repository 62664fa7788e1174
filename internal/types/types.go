// Package types defines constants and small values shared by gravity packages.
package types

const (
	CommandTree   = "tree"
	CommandFind   = "find"
	CommandConfig = "config"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatTOON = "toon"
)

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}
