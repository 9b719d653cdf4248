package normalization

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	weiPerETH  = 1e18
	weiPerGwei = 1e9
)

// parseInt parses a numeric field that may be hex ("0x..."), decimal, or a
// float-formatted string. Empty and "0x" parse to 0.
func parseInt(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if v == "" || v == "0x" {
		return 0, nil
	}
	if strings.HasPrefix(strings.ToLower(v), "0x") {
		n, err := strconv.ParseInt(v[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("parse hex %q: %w", s, err)
		}
		return n, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	// Large exports sometimes round-trip through float formatting.
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return int64(f), nil
}

// parseWei parses a wei amount (hex or decimal, arbitrary size) and scales
// it down by div (weiPerETH or weiPerGwei). uint256 values exceed int64, so
// this goes through math/big.
func parseWei(s string, div float64) (float64, error) {
	v := strings.TrimSpace(s)
	if v == "" || v == "0x" {
		return 0, nil
	}

	wei := new(big.Int)
	var ok bool
	if strings.HasPrefix(strings.ToLower(v), "0x") {
		_, ok = wei.SetString(v[2:], 16)
	} else {
		_, ok = wei.SetString(v, 10)
	}
	if !ok {
		// Scientific notation fallback.
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parse wei %q: %w", s, err)
		}
		return f / div, nil
	}

	f, _ := new(big.Float).SetInt(wei).Float64()
	return f / div, nil
}

// hexSlot extracts 32-byte slot i from unprefixed event data.
func hexSlot(data string, i int) (string, bool) {
	start := i * 64
	end := start + 64
	if len(data) < end {
		return "", false
	}
	return data[start:end], true
}

// topicAddress extracts the 20-byte address from a 32-byte padded topic.
func topicAddress(topic string) string {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(topic)), "0x")
	if len(t) < 40 {
		return ""
	}
	return "0x" + t[len(t)-40:]
}

// normalizeAddress lowercases a hex address and validates its shape.
func normalizeAddress(addr string) (string, bool) {
	a := strings.ToLower(strings.TrimSpace(addr))
	if len(a) != 42 || !strings.HasPrefix(a, "0x") {
		return "", false
	}
	for _, c := range a[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return a, true
}
