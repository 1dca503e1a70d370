package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// errNotImplemented is returned by commands that name a surface this build
// does not implement: the MCP server and the documentation auditor are
// both out of scope for the core analysis pipeline.
var errNotImplemented = errors.New("not implemented in this build")

// NewMCPStdioCommand is a named stub for the MCP stdio server surface.
func NewMCPStdioCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-stdio",
		Short:  "Run valknut as an MCP server over stdio (not implemented in this build)",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errNotImplemented
		},
	}
}

// NewMCPManifestCommand is a named stub for printing an MCP tool manifest.
func NewMCPManifestCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-manifest",
		Short:  "Print the MCP tool manifest (not implemented in this build)",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errNotImplemented
		},
	}
}

// NewDocAuditCommand is a named stub for the documentation-staleness
// auditor.
func NewDocAuditCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "doc-audit",
		Short:  "Audit documentation for staleness against the analyzed tree (not implemented in this build)",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errNotImplemented
		},
	}
}
