package token

import (
	"fmt"
	"hash/crc32"
	"sort"
	"time"
)

// maxKeysPerEpoch is fixed by the wire format: the key index is a 5-bit
// field in the token header.
const maxKeysPerEpoch = 32

// KeyEpoch is one contiguous window during which a fixed set of keys is
// live for minting. Version gates which epoch a peer "must have known"
// at a given stamp; Timestamp orders epochs and anchors ANCIENT_BAN.
type KeyEpoch struct {
	Version   Version
	Timestamp time.Time
	Keys      [][]byte
}

// KeyEpochTable is the static, immutable, ascending-by-timestamp sequence
// of KeyEpoch both TokenMint and TokenVerify are built on.
type KeyEpochTable struct {
	epochs  []KeyEpoch
	keysCRC []uint32
}

// NewKeyEpochTable builds an immutable table sorted by Timestamp ascending.
// It rejects any epoch carrying more than 32 keys.
func NewKeyEpochTable(epochs ...KeyEpoch) (*KeyEpochTable, error) {
	if len(epochs) == 0 {
		return nil, fmt.Errorf("token: key epoch table must not be empty")
	}
	sorted := make([]KeyEpoch, len(epochs))
	copy(sorted, epochs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	crcs := make([]uint32, len(sorted))
	for i, e := range sorted {
		if len(e.Keys) == 0 || len(e.Keys) > maxKeysPerEpoch {
			return nil, fmt.Errorf("token: epoch %d carries %d keys, want 1..%d", i, len(e.Keys), maxKeysPerEpoch)
		}
		h := crc32.NewIEEE()
		for _, k := range e.Keys {
			h.Write(k)
		}
		crcs[i] = h.Sum32()
	}
	return &KeyEpochTable{epochs: sorted, keysCRC: crcs}, nil
}

// Len returns the number of epochs in the table.
func (t *KeyEpochTable) Len() int { return len(t.epochs) }

// At returns the epoch at index i.
func (t *KeyEpochTable) At(i int) KeyEpoch { return t.epochs[i] }

// KeysCRC returns the precomputed CRC32 of the concatenation of every key
// in epoch i, used to build a token's per-epoch level digest.
func (t *KeyEpochTable) KeysCRC(i int) uint32 { return t.keysCRC[i] }

// Latest returns the newest epoch and its index.
func (t *KeyEpochTable) Latest() (KeyEpoch, int) {
	i := len(t.epochs) - 1
	return t.epochs[i], i
}

// mustKnowAt returns the index of the epoch a sender presenting version v
// at stamp must have known: the smallest index k such that v <= table[k]'s
// version, bounded above by the last epoch whose Timestamp is before
// stamp-ancientBan; falls back to the last epoch on no match so that
// long-expired peers are still verifiable.
func (t *KeyEpochTable) mustKnowAt(v Version, stamp time.Time, ancientBan time.Duration) int {
	bound := len(t.epochs) - 1
	cutoff := stamp.Add(-ancientBan)
	for i, e := range t.epochs {
		if e.Timestamp.Before(cutoff) {
			bound = i
		}
	}
	for k := 0; k <= bound; k++ {
		if v.Compare(t.epochs[k].Version) <= 0 {
			return k
		}
	}
	return bound
}
