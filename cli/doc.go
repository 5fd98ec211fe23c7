// Package cli implements the runme command line interface.
//
// The root command runs a document's blocks; list, run and serve are its
// subcommands. Configuration, logging and the sandbox factory are resolved
// with fx from the flags of the invoked command.
package cli
