// Package cli implements the mcptap command line interface.
package cli
