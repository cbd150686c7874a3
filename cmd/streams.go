package cmd

import (
	"io"
	"os"
)

// Streams replaces the teacher's k8s-flavored genericiooptions.IOStreams:
// same purpose (inject In/Out/ErrOut so commands are testable without
// touching the real console), no Kubernetes dependency.
type Streams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// DefaultStreams wires a Streams to the process's real stdio.
func DefaultStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}
