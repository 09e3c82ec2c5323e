package peel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Expand drives adapter over src and yields its leaf descendants:
// every nested source the adapter produces is re-dispatched, matched
// containers are expanded in turn, and unmatched sources come out as
// leaves. Order is depth-first in each adapter's own yield order. The
// depth bound is checked before each expansion; a branch that would
// exceed it is sealed with a single diagnostic leaf.
func Expand(adapter Adapter, reason *Match, src *Source) (Iter, error) {
	it, err := adapt(adapter, reason, src)
	if err != nil {
		return nil, err
	}
	return &expandIter{stack: []expandFrame{{it: it, path: src.Path, adapter: adapter.Meta().Name}}}, nil
}

func adapt(adapter Adapter, reason *Match, src *Source) (Iter, error) {
	it, err := adapter.Adapt(src, reason)
	if err != nil {
		return nil, fmt.Errorf("adapting %s via %s: %w", src.Path, adapter.Meta().Name, err)
	}
	return it, nil
}

type expandFrame struct {
	it      Iter
	path    string
	adapter string
}

// expandIter flattens nested adapter output with an explicit iterator
// stack. At most one adapter invocation per nesting level is live at a
// time, so memory is bounded by depth, not by tree size.
type expandIter struct {
	stack  []expandFrame
	failed bool
}

func (e *expandIter) Next(ctx context.Context) (*Source, error) {
	if e.failed {
		return nil, io.EOF
	}
	for len(e.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := &e.stack[len(e.stack)-1]
		src, err := top.it.Next(ctx)
		if errors.Is(err, io.EOF) {
			closeIfCloser(top.it)
			e.stack = e.stack[:len(e.stack)-1]
			continue
		}
		if err != nil {
			e.failed = true
			return nil, fmt.Errorf("adapting %s via %s: %w", top.path, top.adapter, err)
		}

		d, err := dispatchSource(src)
		if err != nil {
			e.failed = true
			return nil, err
		}
		if d.adapter == nil {
			return d.src, nil
		}
		if d.src.Depth >= d.src.Config.MaxDepth {
			return depthLimitLeaf(d.src), nil
		}

		d.src.Config.log().Info("chose adapter",
			"path", d.src.Path,
			"adapter", d.adapter.Meta().Name,
			"match", d.match.Kind.String(),
			"depth", d.src.Depth,
		)
		it, err := adapt(d.adapter, d.match, d.src)
		if err != nil {
			e.failed = true
			return nil, err
		}
		e.stack = append(e.stack, expandFrame{it: it, path: d.src.Path, adapter: d.adapter.Meta().Name})
	}
	return nil, io.EOF
}

// Close releases every live adapter invocation. Used when the consumer
// abandons the stream before draining it.
func (e *expandIter) Close() error {
	for i := len(e.stack) - 1; i >= 0; i-- {
		closeIfCloser(e.stack[i].it)
	}
	e.stack = nil
	return nil
}

// depthLimitLeaf seals a branch that reached the recursion bound with a
// diagnostic marker carrying the accumulated prefix and depth.
func depthLimitLeaf(src *Source) *Source {
	marker := fmt.Sprintf("%s[peel: max recursion depth reached (%d)]\n", src.Prefix, src.Depth)
	src.Config.log().Debug("recursion depth limit reached", "path", src.Path, "depth", src.Depth)
	out := src.withReader(strings.NewReader(marker))
	out.Postprocess = false
	return out
}

// Concat flattens an iterator's leaf sources into one ordered byte
// stream. Closing the returned reader before EOF stops all pending
// decode work.
func Concat(ctx context.Context, it Iter) io.ReadCloser {
	return &concatReader{ctx: ctx, it: it}
}

type concatReader struct {
	ctx  context.Context
	it   Iter
	cur  io.Reader
	done bool
}

func (c *concatReader) Read(p []byte) (int, error) {
	for {
		if c.done {
			return 0, io.EOF
		}
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		if c.cur == nil {
			src, err := c.it.Next(c.ctx)
			if errors.Is(err, io.EOF) {
				c.done = true
				return 0, io.EOF
			}
			if err != nil {
				c.done = true
				return 0, err
			}
			c.cur = src.Reader
		}
		n, err := c.cur.Read(p)
		if errors.Is(err, io.EOF) {
			closeIfCloser(c.cur)
			c.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *concatReader) Close() error {
	if c.cur != nil {
		closeIfCloser(c.cur)
		c.cur = nil
	}
	closeIfCloser(c.it)
	c.done = true
	return nil
}
