// Package transform implements the pluggable byte-transform chain the
// serialization pipeline runs each serialized page through before the
// result is length-prefixed and appended to the write buffer: stages such
// as compression and encryption, applied in the order given to NewChain.
// Each transform is symmetric: the same
// chain, run in reverse stage order, recovers the original bytes.
package transform

import "io"

// Transform is one stage of the byte-transform chain. Serialize wraps sink
// so writes to the returned WriteCloser are transformed before reaching
// sink; Deserialize wraps source so reads from the returned Reader are
// un-transformed.
type Transform interface {
	Serialize(sink io.Writer) io.WriteCloser
	Deserialize(source io.Reader) io.Reader
}

// Chain composes an ordered list of transforms into a single pipeline. The
// zero value (no transforms) is a valid passthrough chain.
type Chain struct {
	stages []Transform
}

// NewChain builds a Chain from stages in apply order: the first stage wraps
// raw bytes first on the write path, and unwraps last on the read path.
func NewChain(stages...Transform) *Chain {
	return &Chain{stages: stages}
}

// Serialize wraps sink with every stage, outermost stage first so bytes
// written to the returned WriteCloser pass through stages in declaration
// order before reaching sink. Closing it closes every stage, outermost
// first.
func (c *Chain) Serialize(sink io.Writer) io.WriteCloser {
	var wc io.WriteCloser = nopWriteCloser{sink}
	layers := make([]io.WriteCloser, 0, len(c.stages))
	for i := len(c.stages) - 1; i >= 0; i-- {
		wc = c.stages[i].Serialize(wc)
		layers = append(layers, wc)
	}
	return &chainWriteCloser{Writer: wc, layers: layers}
}

// chainWriteCloser closes each stage's writer from the outermost inward, so
// every stage flushes its output into the next before that one is closed.
type chainWriteCloser struct {
	io.Writer
	layers []io.WriteCloser
}

func (c *chainWriteCloser) Close() error {
	for i := len(c.layers) - 1; i >= 0; i-- {
		if err := c.layers[i].Close(); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize wraps source with every stage in reverse order, undoing
// Serialize's wrapping.
func (c *Chain) Deserialize(source io.Reader) io.Reader {
	r := source
	for i := len(c.stages) - 1; i >= 0; i-- {
		r = c.stages[i].Deserialize(r)
	}
	return r
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Noop is a Transform that passes bytes through unchanged. Used as the
// default chain when neither compression nor encryption is configured.
type Noop struct{}

func (Noop) Serialize(sink io.Writer) io.WriteCloser { return nopWriteCloser{sink} }
func (Noop) Deserialize(source io.Reader) io.Reader { return source }
