package media

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dgallion1/docrange/internal/doctree"
)

// MaxPayloadBytes is the largest payload that can be relocated: a signed
// 32-bit byte count.
const MaxPayloadBytes = math.MaxInt32

// Relocate copies every payload referenced by drawing leaves below nodes from
// src into dst and rewrites those leaves to the new relationship ids. nodes
// must belong to t, normally a private copy; src is only read.
//
// All payloads are resolved and read before anything is registered or
// rewritten, so a failure leaves both t and dst untouched. Several leaves
// sharing a relationship id share one destination part.
func Relocate(t *doctree.Tree, nodes []doctree.NodeID, src Source, dst *Store) error {
	var leaves []*doctree.Node
	seen := make(map[doctree.NodeID]bool)
	for _, id := range nodes {
		for _, d := range t.Descendants(id) {
			n := t.Node(d)
			if n.Kind != doctree.KindDrawing || seen[d] {
				continue
			}
			seen[d] = true
			leaves = append(leaves, n)
		}
	}

	type payload struct {
		name string
		data []byte
	}
	loaded := make(map[string]payload)
	var order []string
	for _, n := range leaves {
		if _, ok := loaded[n.RelID]; ok {
			continue
		}
		data, err := ReadPayload(src, n.RelID)
		if err != nil {
			return err
		}
		name, err := src.Name(n.RelID)
		if err != nil {
			return fmt.Errorf("relocate %s: %w", n.RelID, err)
		}
		loaded[n.RelID] = payload{name: name, data: data}
		order = append(order, n.RelID)
	}

	rewritten := make(map[string]string, len(order))
	for _, old := range order {
		p := loaded[old]
		rewritten[old] = dst.Register(p.name, p.data)
	}
	for _, n := range leaves {
		n.RelID = rewritten[n.RelID]
	}
	return nil
}

// ReadPayload reads the whole payload behind relID, refusing payloads whose
// declared size exceeds MaxPayloadBytes.
func ReadPayload(src Source, relID string) ([]byte, error) {
	if relID == "" {
		return nil, fmt.Errorf("read payload: empty relationship id: %w", ErrNotFound)
	}
	size, err := src.Size(relID)
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", relID, err)
	}
	if size > MaxPayloadBytes {
		return nil, fmt.Errorf("read payload %s: %d bytes: %w", relID, size, ErrTooLarge)
	}
	if size < 0 {
		return nil, fmt.Errorf("read payload %s: negative size %d", relID, size)
	}
	rc, err := src.Open(relID)
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", relID, err)
	}
	defer rc.Close()

	data := make([]byte, size)
	if _, err := io.ReadFull(rc, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read payload %s: stream shorter than %d bytes: %w", relID, size, err)
		}
		return nil, fmt.Errorf("read payload %s: %w", relID, err)
	}
	return data, nil
}
