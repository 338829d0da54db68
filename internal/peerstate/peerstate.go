// Package peerstate carries the per-address trust state consumed by the
// encryption layer: raw key material and the fingerprints derived from
// it. Only the persistence-facing part lives here; key negotiation and
// verification policy belong to the encryption layer itself.
package peerstate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bpiddubnyi/deltachat-core/internal/store"
)

// ErrNoKeys is returned when an address has no key material to derive
// fingerprints from.
var ErrNoKeys = errors.New("peerstate: no key material")

// Peerstate is one row of trust state for a peer address.
type Peerstate struct {
	Addr                 string
	PublicKey            []byte
	GossipKey            []byte
	PublicKeyFingerprint string
	GossipKeyFingerprint string
}

// Fingerprint derives the canonical fingerprint of raw key material:
// uppercase hex, the OpenPGP v4 convention. Empty material yields "".
func Fingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := sha1.Sum(key)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Load reads the peerstate for addr. The caller must hold the store lock.
func Load(ctx context.Context, s *store.Store, addr string) (*Peerstate, error) {
	stmt, err := s.Stmt(ctx, store.SlotPeerstateSelect,
		"SELECT addr, public_key, gossip_key, public_key_fingerprint, gossip_key_fingerprint FROM acpeerstates WHERE addr=?;")
	if err != nil {
		return nil, err
	}

	p := &Peerstate{}
	if err := stmt.QueryRowContext(ctx, addr).Scan(
		&p.Addr, &p.PublicKey, &p.GossipKey,
		&p.PublicKeyFingerprint, &p.GossipKeyFingerprint,
	); err != nil {
		return nil, fmt.Errorf("peerstate: load %q: %w", addr, err)
	}
	return p, nil
}

// Recalc rederives both fingerprints from the stored key material.
func (p *Peerstate) Recalc() error {
	if len(p.PublicKey) == 0 && len(p.GossipKey) == 0 {
		return fmt.Errorf("%w: %q", ErrNoKeys, p.Addr)
	}
	p.PublicKeyFingerprint = Fingerprint(p.PublicKey)
	p.GossipKeyFingerprint = Fingerprint(p.GossipKey)
	return nil
}

// Save writes the derived fingerprints back. It never creates rows; an
// address must have been seen before it can carry trust state. The caller
// must hold the store lock.
func (p *Peerstate) Save(ctx context.Context, s *store.Store) error {
	stmt, err := s.Stmt(ctx, store.SlotPeerstateUpdateFingerprints,
		"UPDATE acpeerstates SET public_key_fingerprint=?, gossip_key_fingerprint=? WHERE addr=?;")
	if err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, p.PublicKeyFingerprint, p.GossipKeyFingerprint, p.Addr); err != nil {
		return fmt.Errorf("peerstate: save %q: %w", p.Addr, err)
	}
	return nil
}

// Migrator wires the load/recalc/save sequence into the store's
// post-migration fingerprint pass.
type Migrator struct{}

var _ store.PeerstateMigrator = Migrator{}

// RecalcFingerprint implements store.PeerstateMigrator.
func (Migrator) RecalcFingerprint(ctx context.Context, s *store.Store, addr string) error {
	p, err := Load(ctx, s, addr)
	if err != nil {
		return err
	}
	if err := p.Recalc(); err != nil {
		return err
	}
	return p.Save(ctx, s)
}
