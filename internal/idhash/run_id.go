// Package idhash derives deterministic run identifiers from the exact
// inputs of a solve: same parameters and seed, same ID, on every
// platform. Exports and stored rows share these IDs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"espionage-duopoly-lab/internal/domain"
)

// ShortIDBytes is how much of the digest feeds the short form.
const ShortIDBytes = 8

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(key=value|...|seed=N) over the canonical parameter
// key order. Returns hex-encoded hash (64 characters).
func ComputeRunID(p domain.Parameters, seed uint64) string {
	fields := p.Fields()

	var sb strings.Builder
	for _, key := range domain.ParameterKeys {
		fmt.Fprintf(&sb, "%s=%g|", key, fields[key])
	}
	fmt.Fprintf(&sb, "seed=%d", seed)

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// ShortRunID condenses a hex run_id into a filename-friendly base58
// tag built from the leading digest bytes.
func ShortRunID(runID string) (string, error) {
	raw, err := hex.DecodeString(runID)
	if err != nil {
		return "", fmt.Errorf("run_id is not hex: %w", err)
	}
	if len(raw) < ShortIDBytes {
		return "", fmt.Errorf("run_id too short: %d bytes", len(raw))
	}
	return base58.Encode(raw[:ShortIDBytes]), nil
}

// ComputeSweepID identifies a comparative-statics sweep by its swept
// parameter, grid, and base run.
func ComputeSweepID(parameter string, values []float64, baseRunID string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|", parameter)
	for _, v := range values {
		fmt.Fprintf(&sb, "%g,", v)
	}
	sb.WriteString(baseRunID)

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// ComputeGridID identifies a heatmap grid by its axes and base run.
func ComputeGridID(i1Points, i2Points int, baseRunID string) string {
	data := fmt.Sprintf("grid|%d|%d|%s", i1Points, i2Points, baseRunID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
