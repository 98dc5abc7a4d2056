package chunk

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/btcsuite/btcd/txscript"

	"github.com/kysee/bitvm-bridge/hash"
	"github.com/kysee/bitvm-bridge/scripts"
)

// hashMessages emits the uniform input-hashing routine of a tap: for every
// hashed parameter the committed digest image waits on the altstack under
// the preimage limbs the prefix recovered; the routine serializes the
// preimage to nibbles, recomputes the truncated Blake3 and compares.
//
// The routine's shape depends on the parameter types alone, so equivalent
// shapes share one compiled script through a process-wide cache.
func hashMessages(types []ElementType) scripts.Script {
	key := hashShapeKey(types)

	hashScriptCache.mu.Lock()
	defer hashScriptCache.mu.Unlock()
	if scr, ok := hashScriptCache.m[key]; ok {
		return scr
	}

	b := scripts.NewBuilder()
	for _, t := range types {
		if t.IsRaw() {
			// Raw commitments were fully verified by the Winternitz
			// prefix; nothing to rehash.
			continue
		}
		genPreimageHashCheck(b, t)
	}
	scr := b.Done()
	hashScriptCache.m[key] = scr
	return scr
}

// genPreimageHashCheck hashes one parameter's preimage and verifies it
// against the committed 64-nibble image beneath it on the altstack.
func genPreimageHashCheck(b *scripts.Builder, t ElementType) {
	nFqs := t.HashPreimageFqs()
	// The preimage nibbles arrive on the main stack in serialization
	// order; each 32-byte slot is 64 nibbles.
	hash.GenBlake3(b, nFqs*32)
	// Compare the fresh digest image with the committed one nibble by
	// nibble; both are full 64-position images.
	for i := 0; i < hash.NibbleLen; i++ {
		b.FromAlt(1)
		b.Op(txscript.OP_EQUALVERIFY)
	}
}

func hashShapeKey(types []ElementType) string {
	h := fnv.New64a()
	raw := make([]byte, 0, len(types))
	for _, t := range types {
		raw = append(raw, byte(t))
	}
	_, _ = h.Write(raw)
	return fmt.Sprintf("%x|%016x", raw, h.Sum64())
}

var hashScriptCache = struct {
	mu sync.Mutex
	m  map[string]scripts.Script
}{m: make(map[string]scripts.Script)}

// HashShapeCacheSize reports how many distinct hashing shapes have been
// compiled into the process-wide cache.
func HashShapeCacheSize() int {
	hashScriptCache.mu.Lock()
	defer hashScriptCache.mu.Unlock()
	return len(hashScriptCache.m)
}
