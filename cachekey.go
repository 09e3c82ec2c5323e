package peel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// keyEnc is a CBOR encoder configured with Core Deterministic Encoding
// (RFC 8949 §4.2): same logical inputs always produce identical bytes,
// which is what makes the serialized key usable as a cache identity.
var keyEnc cbor.EncMode

func init() {
	var err error
	keyEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("peel: CBOR encoder initialization failed: " + err.Error())
	}
}

// adapterID identifies one adapter revision inside a cache key.
type adapterID struct {
	Name    string
	Version int
}

type cacheKeyInput struct {
	Adapters []adapterID
	Path     string
	ModSec   int64
	ModNsec  int64
}

// buildCacheKey derives the deterministic identity of src's decoded
// result from its cleaned path, modification time, and the adapters
// that could touch it. Recursing adapters key on the whole active list,
// since the expansion beneath them may invoke any of it; terminal
// adapters key on their own (name, version) only.
//
// Path cleaning is lexical (".." segments, duplicate separators);
// symlinks are deliberately not resolved.
func buildCacheKey(src *Source, adapter Adapter, active []Adapter) ([]byte, error) {
	fi, err := os.Stat(src.Path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", src.Path, err)
	}
	mod := fi.ModTime()

	in := cacheKeyInput{
		Path:    filepath.Clean(src.Path),
		ModSec:  mod.Unix(),
		ModNsec: int64(mod.Nanosecond()),
	}
	if adapter.Meta().Recurses {
		in.Adapters = make([]adapterID, 0, len(active))
		for _, a := range active {
			m := a.Meta()
			in.Adapters = append(in.Adapters, adapterID{Name: m.Name, Version: m.Version})
		}
	} else {
		m := adapter.Meta()
		in.Adapters = []adapterID{{Name: m.Name, Version: m.Version}}
	}

	key, err := keyEnc.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("serializing cache key for %s: %w", src.Path, err)
	}
	return key, nil
}
