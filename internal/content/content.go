// Package content implements the FileContent handle: a lazy reference
// carrying (system, path) that lets the script host stream a copy from one
// system's file straight into another's without buffering the whole
// payload (§4.G, §8 property 6).
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/arclang/arc/internal/transport"
)

// Content is a lazy reference to a file on a system. Reading it (ReadAll),
// writing it (WriteString, WriteBytes) or copying another Content into it
// (CopyFrom) are the only operations that touch the transport;
// constructing one is a no-op (§4.G: "Destroying
// a handle without reading or writing is a no-op").
type Content struct {
	transport transport.Transport
	path      string
}

// New returns a Content handle over path on the given transport. It does
// not read anything yet.
func New(t transport.Transport, path string) *Content {
	return &Content{transport: t, path: path}
}

// Path returns the handle's path.
func (c *Content) Path() string { return c.path }

// SystemName identifies which system this handle's path belongs to.
func (c *Content) SystemName() string { return c.transport.SystemName() }

// ReadAll forces a full read and returns it as bytes. This is what
// tostring(handle.content), string concatenation, and template context
// marshalling do (§4.B, §4.G).
func (c *Content) ReadAll(ctx context.Context) ([]byte, error) {
	r, err := c.transport.ReadStream(ctx, c.path)
	if err != nil {
		return nil, fmt.Errorf("could not read %q on %q: %w", c.path, c.transport.SystemName(), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read %q on %q: %w", c.path, c.transport.SystemName(), err)
	}
	return data, nil
}

// WriteString writes s's bytes directly into c's path (§4.G: "Assignment
// dst_handle.content = string").
func (c *Content) WriteString(ctx context.Context, s string) error {
	return c.transport.WriteStream(ctx, c.path, strings.NewReader(s))
}

// WriteBytes writes b directly into c's path.
func (c *Content) WriteBytes(ctx context.Context, b []byte) error {
	return c.transport.WriteStream(ctx, c.path, bytes.NewReader(b))
}

// CopyFrom streams src's bytes into c's path without ever materializing the
// full payload in the engine's memory: src's read stream is handed directly
// to the destination transport's WriteStream, so the only buffering is
// whatever the two transport implementations do internally for their own
// I/O chunks (§4.G, §8 property 6).
func (c *Content) CopyFrom(ctx context.Context, src *Content) error {
	r, err := src.transport.ReadStream(ctx, src.path)
	if err != nil {
		return fmt.Errorf("could not open %q on %q for streaming: %w", src.path, src.transport.SystemName(), err)
	}
	defer r.Close()

	if err := c.transport.WriteStream(ctx, c.path, r); err != nil {
		return fmt.Errorf("could not stream into %q on %q: %w", c.path, c.transport.SystemName(), err)
	}
	return nil
}

