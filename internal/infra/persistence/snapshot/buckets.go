// Package snapshot splits a domain.Snapshot into named JSON buckets and puts
// it back together. Durable backends store one row or object per bucket.
package snapshot

import (
	"encoding/json"
	"fmt"

	"stratsim/pkg/domain"
)

// Bucket names in write order.
const (
	BucketProducts   = "products"
	BucketClients    = "clients"
	BucketStrategies = "strategies"
	BucketPestel     = "pestel"
	BucketPorter     = "porter"
	BucketFinancial  = "financial"
	BucketBudget     = "budget"
	BucketMeta       = "meta"
)

// Buckets lists every bucket a complete snapshot is written to.
var Buckets = []string{
	BucketProducts,
	BucketClients,
	BucketStrategies,
	BucketPestel,
	BucketPorter,
	BucketFinancial,
	BucketBudget,
	BucketMeta,
}

type meta struct {
	CurrentSection domain.Section `json:"current_section"`
}

func targets(s *domain.Snapshot, m *meta) map[string]any {
	return map[string]any{
		BucketProducts:   &s.Products,
		BucketClients:    &s.Clients,
		BucketStrategies: &s.Strategies,
		BucketPestel:     &s.PestelSelections,
		BucketPorter:     &s.PorterSelections,
		BucketFinancial:  &s.FinancialData,
		BucketBudget:     &s.Budget,
		BucketMeta:       m,
	}
}

// Encode marshals every bucket of s.
func Encode(s domain.Snapshot) (map[string][]byte, error) {
	m := meta{CurrentSection: s.CurrentSection}
	out := make(map[string][]byte, len(Buckets))
	for bucket, target := range targets(&s, &m) {
		data, err := json.Marshal(target)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// Decode rebuilds a snapshot from bucket payloads. Unknown buckets are
// ignored and empty payloads leave the field at its zero value. Any
// malformed payload fails the whole decode.
func Decode(payloads map[string][]byte) (domain.Snapshot, error) {
	var s domain.Snapshot
	var m meta
	t := targets(&s, &m)
	for _, bucket := range Buckets {
		data := payloads[bucket]
		if len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, t[bucket]); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	s.CurrentSection = m.CurrentSection
	return s, nil
}

// Marshal encodes the whole snapshot as one JSON document.
func Marshal(s domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a document written by Marshal.
func Unmarshal(data []byte) (domain.Snapshot, error) {
	var s domain.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
