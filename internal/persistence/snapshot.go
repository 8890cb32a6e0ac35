// Package persistence snapshots the registry to a state file and reloads
// it at startup. The preferred on-disk format is a hierarchical
// key-value text format (TOML, via BurntSushi/toml) with one table per
// alert; description and metadata are carried through a binary-safe Z85
// encoding because that text format strips newlines and other special
// characters. A legacy, length-prefixed binary format (internal/wire's
// framed encoding) is accepted on reload only, for compatibility with
// state files written before this format existed.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/wire"
	"github.com/fty-ops/alert-registry/internal/z85"
)

// alertRecord is the on-disk shape of one alert in the preferred format.
// Field names are capitalized because the toml encoder only sees exported
// fields; the on-disk key names come from the `toml` tags.
type alertRecord struct {
	Rule        string   `toml:"rule"`
	Element     string   `toml:"element"`
	State       string   `toml:"state"`
	Severity    string   `toml:"severity"`
	Description string   `toml:"description"` // Z85-encoded
	Metadata    string   `toml:"metadata"`     // Z85-encoded
	Time        int64    `toml:"time"`
	TTL         int64    `toml:"ttl"`
	CTime       int64    `toml:"ctime"`
	LastSent    int64    `toml:"last_sent"`
	Actions     []string `toml:"actions"`
}

type document struct {
	Alert []alertRecord `toml:"alert"`
}

// Save writes the given alerts to path in the preferred format, via a
// write-then-rename so a crash mid-write cannot leave a half-written state
// file in place of a good one.
func Save(path string, alerts []*entity.Alert) error {
	doc := document{Alert: make([]alertRecord, len(alerts))}
	for i, a := range alerts {
		doc.Alert[i] = alertRecord{
			Rule:        a.Rule,
			Element:     a.Element,
			State:       string(a.State),
			Severity:    a.Severity,
			Description: z85.Encode(a.Description),
			Metadata:    z85.Encode(a.Metadata),
			Time:        a.Time,
			TTL:         a.TTL,
			CTime:       a.CTime,
			LastSent:    a.LastSent,
			Actions:     a.Actions,
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("persistence: rename temp file into place: %w", err)
	}
	return nil
}

// Load reloads alerts from path, trying the preferred format first and
// falling back to the legacy binary format on failure. Duplicate
// identities are dropped with a warning. If both formats fail to parse,
// Load returns an error and an empty slice; callers should treat this as
// "start with an empty registry", not a fatal error.
func Load(path string) ([]*entity.Alert, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: read state file: %w", err)
	}

	alerts, preferredErr := loadPreferred(raw)
	if preferredErr == nil {
		return dedup(alerts), nil
	}
	log.Warn().Err(preferredErr).Str("path", path).Msg("preferred state file format failed to parse, trying legacy format")

	alerts, legacyErr := loadLegacy(raw)
	if legacyErr == nil {
		return dedup(alerts), nil
	}
	log.Warn().Err(legacyErr).Str("path", path).Msg("legacy state file format also failed to parse")

	return nil, fmt.Errorf("persistence: no format could parse %s: preferred=%v legacy=%v", path, preferredErr, legacyErr)
}

func loadPreferred(raw []byte) ([]*entity.Alert, error) {
	var doc document
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return nil, err
	}
	if len(doc.Alert) == 0 {
		return nil, fmt.Errorf("no alert tables found")
	}

	alerts := make([]*entity.Alert, 0, len(doc.Alert))
	for _, rec := range doc.Alert {
		description, err := z85.DecodeTrimmed(rec.Description)
		if err != nil {
			return nil, fmt.Errorf("decode description for %s/%s: %w", rec.Rule, rec.Element, err)
		}
		metadata, err := z85.DecodeTrimmed(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("decode metadata for %s/%s: %w", rec.Rule, rec.Element, err)
		}
		alerts = append(alerts, &entity.Alert{
			Rule:        rec.Rule,
			Element:     rec.Element,
			State:       entity.State(rec.State),
			Severity:    rec.Severity,
			Description: description,
			Metadata:    metadata,
			Time:        rec.Time,
			TTL:         rec.TTL,
			CTime:       rec.CTime,
			LastSent:    rec.LastSent,
			Actions:     rec.Actions,
		})
	}
	return alerts, nil
}

func loadLegacy(raw []byte) ([]*entity.Alert, error) {
	return wire.DecodeAllFramed(raw)
}

func dedup(alerts []*entity.Alert) []*entity.Alert {
	out := make([]*entity.Alert, 0, len(alerts))
next:
	for _, a := range alerts {
		for _, kept := range out {
			if kept.Identity().Equal(a.Identity()) {
				log.Warn().Str("rule", a.Rule).Str("element", a.Element).Msg("duplicate alert identity in state file, dropping")
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}
