// Package fairness derives auditable random numbers from a server seed,
// a player supplied client seed and a per-session nonce.
package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"unicode/utf8"
)

const (
	ServerSeedBytes  = 32
	MaxClientSeedLen = 64
)

var (
	ErrInvalidClientSeed  = errors.New("invalid_client_seed")
	ErrInvalidRange       = errors.New("invalid_range")
	ErrSeedRevealed       = errors.New("seed_revealed")
	ErrCommitmentMismatch = errors.New("commitment_mismatch")
	ErrOutcomeMismatch    = errors.New("outcome_mismatch")
)

// NewServerSeed returns 256 bits of entropy, hex encoded.
func NewServerSeed() (string, error) {
	b := make([]byte, ServerSeedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func ValidateClientSeed(clientSeed string) error {
	n := utf8.RuneCountInString(clientSeed)
	if n < 1 || n > MaxClientSeedLen {
		return ErrInvalidClientSeed
	}
	return nil
}

// Derive hashes "server:client:nonce" with SHA-256, reads the first eight
// bytes as a big-endian uint64 and reduces it modulo max.
func Derive(serverSeed, clientSeed string, nonce, max uint64) (uint64, error) {
	if max == 0 {
		return 0, ErrInvalidRange
	}
	if err := ValidateClientSeed(clientSeed); err != nil {
		return 0, err
	}
	msg := serverSeed + ":" + clientSeed + ":" + strconv.FormatUint(nonce, 10)
	sum := sha256.Sum256([]byte(msg))
	return binary.BigEndian.Uint64(sum[:8]) % max, nil
}

// Commit is the public fingerprint of a server seed, published before play.
func Commit(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

type Outcome struct {
	Nonce uint64 `json:"nonce"`
	Value uint64 `json:"value"`
}

type Reveal struct {
	ServerSeed string `json:"server_seed"`
	Commitment string `json:"commitment"`
	LastNonce  uint64 `json:"last_nonce"`
}

// Seed holds one session's server seed and nonce counter.
type Seed struct {
	mu         sync.Mutex
	server     string
	commitment string
	nonce      uint64
	revealed   bool
}

func NewSeed() (*Seed, error) {
	server, err := NewServerSeed()
	if err != nil {
		return nil, err
	}
	return NewSeedFrom(server), nil
}

func NewSeedFrom(serverSeed string) *Seed {
	return &Seed{server: serverSeed, commitment: Commit(serverSeed)}
}

func (s *Seed) Commitment() string {
	return s.commitment
}

// Next consumes the next nonce. The nonce only advances on success.
func (s *Seed) Next(clientSeed string, max uint64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed {
		return Outcome{}, ErrSeedRevealed
	}
	v, err := Derive(s.server, clientSeed, s.nonce+1, max)
	if err != nil {
		return Outcome{}, err
	}
	s.nonce++
	return Outcome{Nonce: s.nonce, Value: v}, nil
}

// Reveal retires the seed. Further draws fail.
func (s *Seed) Reveal() Reveal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealed = true
	return Reveal{ServerSeed: s.server, Commitment: s.commitment, LastNonce: s.nonce}
}

// Verify recomputes an outcome from revealed inputs.
func Verify(serverSeed, commitment, clientSeed string, nonce, max, value uint64) error {
	if commitment != "" && Commit(serverSeed) != commitment {
		return ErrCommitmentMismatch
	}
	got, err := Derive(serverSeed, clientSeed, nonce, max)
	if err != nil {
		return err
	}
	if got != value {
		return ErrOutcomeMismatch
	}
	return nil
}
