// Package identity derives stable anonymous identity tokens for voting.
// The token is a pure function of connection metadata: the same client
// always maps to the same token across process restarts, which is what
// makes vote-switch detection possible without accounts.
package identity

import (
	"github.com/Linesmerrill/RxVerify/pkg/hash"
)

const separator = "|"

// Resolve derives the anonymous identity token from a network address and
// a client signature (typically the User-Agent). Deterministic, no salt,
// no I/O. Malformed inputs are treated as empty strings rather than
// rejected; an empty pair still yields a valid (shared) token.
func Resolve(networkAddress, clientSignature string) string {
	return hash.SHA256Hex(networkAddress + separator + clientSignature)
}
