package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/gtknet/ward/config"
	"github.com/gtknet/ward/log"
	"golang.org/x/time/rate"
)

type cachedToken struct {
	token    string
	mintedAt time.Time
}

// TokenMint issues wire-form tokens, caching the result per version string
// and only regenerating once TOKEN_LIFE has elapsed since the last mint for
// that exact string — handshakes for the same build churn through the same
// cached token instead of minting (and burning randomness) on every call.
type TokenMint struct {
	mu    sync.Mutex
	table *KeyEpochTable
	cfg   config.Token
	now   func() time.Time
	cache map[string]cachedToken

	ancientWarn *rate.Limiter
	wasAncient  bool
}

// NewTokenMint constructs a TokenMint over table. now defaults to
// time.Now if nil; tests supply a fixed or stepped clock instead.
func NewTokenMint(table *KeyEpochTable, cfg config.Token, now func() time.Time) *TokenMint {
	if now == nil {
		now = time.Now
	}
	return &TokenMint{
		table:       table,
		cfg:         cfg,
		now:         now,
		cache:       make(map[string]cachedToken),
		ancientWarn: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

// Mint returns a wire-form token for versionString, reusing the cached
// token if it was minted less than TOKEN_LIFE ago.
func (m *TokenMint) Mint(versionString string) (string, error) {
	now := m.now()

	m.mu.Lock()
	if c, ok := m.cache[versionString]; ok && now.Sub(c.mintedAt) < m.cfg.Life() {
		m.mu.Unlock()
		return c.token, nil
	}
	m.mu.Unlock()

	tok, err := m.mintFresh(versionString, now)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cache[versionString] = cachedToken{token: tok, mintedAt: now}
	m.mu.Unlock()
	return tok, nil
}

func (m *TokenMint) mintFresh(versionString string, now time.Time) (string, error) {
	e, idx := m.table.Latest()
	cutoff := now.Add(-m.cfg.AncientBan())
	if !e.Timestamp.After(cutoff) {
		m.mu.Lock()
		m.wasAncient = true
		m.mu.Unlock()
		if m.ancientWarn.Allow() {
			log.Warn("token: minting from an ancient epoch", "epoch_timestamp", e.Timestamp)
		}
	} else {
		m.mu.Lock()
		m.wasAncient = false
		m.mu.Unlock()
	}

	keyIdx, err := randUint8Below(uint8(len(e.Keys)))
	if err != nil {
		return "", fmt.Errorf("token: mint: %w", err)
	}
	var nonce [3]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("token: mint: %w", err)
	}

	header := buildHeader(uint32(now.Unix()), nonce, keyIdx)
	digest := digestOf(e.Keys[keyIdx], header[:], versionString)

	var blob [blobLen]byte
	copy(blob[:headerLen], header[:])
	copy(blob[headerLen:], digest[:])

	blobCRC := crc32Of(blob[:])
	level := make([]byte, 0, 2*(m.table.Len()-idx))
	for k := idx; k < m.table.Len(); k++ {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], levelEntry(blobCRC, m.table.KeysCRC(k)))
		level = append(level, b[:]...)
	}

	return base64.StdEncoding.EncodeToString(blob[:]) + "; " + base64.StdEncoding.EncodeToString(level), nil
}

// IsAncient reports whether the most recent mint had to fall back to an
// epoch older than token.ancient_ban.
func (m *TokenMint) IsAncient() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wasAncient
}

func randUint8Below(n uint8) (uint8, error) {
	if n == 0 {
		return 0, fmt.Errorf("epoch has no keys")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return uint8(v.Int64()), nil
}
