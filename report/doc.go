// Package report renders block reports and block listings.
//
// Reports can be rendered for humans, as JSON or as YAML. JSON written to a
// terminal is colorized. Report files are replaced atomically under a file
// lock so concurrent runs never interleave their output.
package report
