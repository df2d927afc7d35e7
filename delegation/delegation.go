// Package delegation resolves which identity a signing key acts for.
//
// An identity is an allow-listed address. It can appoint delegate keys that sign on
// its behalf. The allowlist and the delegations are produced outside of the node and
// only read here.
package delegation

import (
	"github.com/ethereum/go-ethereum/common"
)

// Mode selects how revoked delegations are treated.
type Mode uint8

const (
	// Admission is used for new writes. Revoked delegations are not eligible.
	Admission Mode = iota
	// Replay is used for records received through sync. A delegation revoked after
	// a record was signed keeps the record valid, so that nodes that learned about the
	// revocation at different times don't disagree about history.
	Replay
)

func (m Mode) String() string {
	switch m {
	case Admission:
		return "admission"
	case Replay:
		return "replay"
	default:
		return "unknown"
	}
}

// Delegation authorizes Delegate to sign for Identity.
type Delegation struct {
	Delegate common.Address
	Identity common.Address
	Revoked  bool
}

// Snapshot is an immutable view of the allowlist and delegations.
type Snapshot struct {
	Allowlist   map[common.Address]struct{}
	Delegations map[common.Address]Delegation
}

// Empty has no eligible signers.
var Empty = &Snapshot{}

// NewSnapshot indexes the allowlist and delegations. A later delegation of the same
// key replaces an earlier one.
func NewSnapshot(allowlist []common.Address, delegations []Delegation) *Snapshot {
	s := &Snapshot{
		Allowlist:   make(map[common.Address]struct{}, len(allowlist)),
		Delegations: make(map[common.Address]Delegation, len(delegations)),
	}
	for _, addr := range allowlist {
		s.Allowlist[addr] = struct{}{}
	}
	for _, d := range delegations {
		s.Delegations[d.Delegate] = d
	}
	return s
}

// Eligible returns the identity signer acts for. Allow-listed signers act for
// themselves, delegates for the allow-listed identity that appointed them.
func (s *Snapshot) Eligible(signer common.Address, mode Mode) (common.Address, bool) {
	if _, ok := s.Allowlist[signer]; ok {
		return signer, true
	}
	d, ok := s.Delegations[signer]
	if !ok {
		return common.Address{}, false
	}
	if _, ok := s.Allowlist[d.Identity]; !ok {
		return common.Address{}, false
	}
	if d.Revoked && mode == Admission {
		return common.Address{}, false
	}
	return d.Identity, true
}

// Size returns the number of allow-listed identities and delegations.
func (s *Snapshot) Size() (int, int) {
	return len(s.Allowlist), len(s.Delegations)
}
