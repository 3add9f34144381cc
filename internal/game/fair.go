package game

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Outcome generation is commit-reveal: the commitment (SHA256 of the server
// seed) is published when betting opens, the seed itself when the round ends,
// so players can recompute the result.

// GenerateSeed creates a cryptographically secure random seed.
func GenerateSeed() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HashCommitment creates a SHA256 hash of the seed for commitment.
func HashCommitment(seed string) string {
	h := sha256.New()
	h.Write([]byte(seed))
	return hex.EncodeToString(h.Sum(nil))
}

// roll01 maps HMAC-SHA256(serverSeed, label:nonce) to a float in [0, 1).
func roll01(serverSeed, label string, nonce int64) float64 {
	data := fmt.Sprintf("%s:%d", label, nonce)
	h := hmac.New(sha256.New, []byte(serverSeed))
	h.Write([]byte(data))
	sum := h.Sum(nil)

	// First 8 bytes, 64 bits of entropy.
	v := binary.BigEndian.Uint64(sum[:8])
	const maxUint64F = 18446744073709551616.0
	return float64(v) / maxUint64F
}

// Outcome generates the round result in [0, 100), rounded to 2 decimals.
func Outcome(serverSeed, clientSeed string, nonce int64) float64 {
	r := roll01(serverSeed, clientSeed, nonce) * MAX_RESULT
	return float64(int(r*100)) / 100.0
}

// DrawResult produces the round result with the house edge applied. With
// probability edgePct/100 the result is forced into the half that makes the
// heavier-staked side lose. Both draws come from the seed chain so the round
// stays verifiable once the seed is revealed.
func DrawResult(serverSeed, clientSeed string, nonce int64, edgePct, aboveStake, belowStake float64) float64 {
	result := Outcome(serverSeed, clientSeed, nonce)
	if edgePct <= 0 || aboveStake == belowStake {
		return result
	}

	edgeRoll := roll01(serverSeed, clientSeed+":edge", nonce)
	if edgeRoll*100 >= edgePct {
		return result
	}

	// ABOVE wins when result < 50; mirror the result into the half where the
	// heavier side loses.
	if aboveStake > belowStake && result < 50 {
		return float64(int((MAX_RESULT-result)*100)) / 100.0
	}
	if belowStake > aboveStake && result >= 50 {
		mirrored := float64(int((MAX_RESULT-result)*100)) / 100.0
		// Mirroring exactly 50 lands back on the BELOW-winning boundary.
		if mirrored >= 50 {
			mirrored = 49.99
		}
		return mirrored
	}
	return result
}

// VerifyOutcome lets players check a revealed round. Small float differences
// are tolerated.
func VerifyOutcome(serverSeed, clientSeed string, nonce int64, claimed float64) bool {
	calculated := Outcome(serverSeed, clientSeed, nonce)
	diff := calculated - claimed
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}
