package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Canonicalize renders v as JSON with every nested object's keys sorted
// lexicographically. Arrays keep element order; absent/omitted fields are
// never emitted as null. Two structurally equal values canonicalize to the
// same string regardless of key order or map iteration order.
func Canonicalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize marshal: %w", err)
	}
	return CanonicalizeRaw(raw)
}

// CanonicalizeRaw canonicalizes an already-serialized JSON document. Number
// literals pass through untouched, so re-canonicalizing a canonical string
// is a no-op.
func CanonicalizeRaw(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return "", fmt.Errorf("canonicalize parse: %w", err)
	}
	var sb strings.Builder
	writeCanonical(&sb, parsed)
	return sb.String(), nil
}

func writeCanonical(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if t {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case json.Number:
		sb.WriteString(t.String())
	case string:
		b, _ := json.Marshal(t)
		sb.Write(b)
	case []any:
		sb.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, el)
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			sb.Write(kb)
			sb.WriteByte(':')
			writeCanonical(sb, t[k])
		}
		sb.WriteByte('}')
	default:
		// json.Decode with UseNumber only produces the cases above.
		b, _ := json.Marshal(t)
		sb.Write(b)
	}
}

// ContentHash returns the hex SHA-256 digest of the UTF-8 encoding of s.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashValue is ContentHash composed with Canonicalize.
func HashValue(v any) (string, error) {
	c, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return ContentHash(c), nil
}

// HashRaw is ContentHash composed with CanonicalizeRaw.
func HashRaw(raw []byte) (string, error) {
	c, err := CanonicalizeRaw(raw)
	if err != nil {
		return "", err
	}
	return ContentHash(c), nil
}
