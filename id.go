package nanorpc

import "hash/fnv"

// ID identifies a registered procedure on the wire. Two peers computing the
// ID for the same name must agree — see HashName. Handlers may also be
// registered directly by ID (Server.HandleID) to bypass name hashing
// altogether, matching spec's "peers may also register handlers by raw
// identifier."
type ID uint64

// HashName derives a procedure ID from a human-readable name via FNV-1a
// over its UTF-8 bytes. This is "an implementation-defined hash exposed as
// a helper" (spec §3) — any deterministic hash works as long as every peer
// built from this package agrees, which FNV-1a does by construction.
func HashName(name string) ID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return ID(h.Sum64())
}
