package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"talibgen/config"
)

// SchemaVersion changes whenever the record encoding does.
const SchemaVersion = 1

var keyStateInfo = []byte("state_info")

// StateInfo identifies the schema and the generation settings a state
// database was written with.
type StateInfo struct {
	Schema       int    `json:"schema"`
	SettingsHash string `json:"settings_hash"`
}

// Info returns the recorded state info. A fresh database yields the zero value.
func (s *BoltStore) Info() (StateInfo, error) {
	var info StateInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyStateInfo)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("corrupt state info: %w", err)
		}
		return nil
	})
	return info, err
}

func (s *BoltStore) setInfo(info StateInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyStateInfo, data)
	})
}

// SettingsHash hashes the settings that shape generated output. Runtime
// settings such as workers or logging are left out.
func SettingsHash(cfg *config.Config) string {
	g := cfg.Generate
	h := sha256.New()
	for _, field := range []string{g.Prefix, g.Crate, g.Extension, g.ManifestName} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Check is the outcome of comparing a state database with the running
// binary and configuration.
type Check struct {
	Upgrade bool // schema is older and will be upgraded in place
	Reset   bool // recorded digests cannot be trusted and must be cleared
	From    int
	To      int
	Reason  string
}

// Check reports whether the database needs an upgrade or a reset before use.
func (s *BoltStore) Check(cfg *config.Config) (Check, error) {
	info, err := s.Info()
	if err != nil {
		return Check{}, err
	}

	c := Check{From: info.Schema, To: SchemaVersion}
	switch {
	case info.Schema > SchemaVersion:
		c.Reset = true
		c.Reason = fmt.Sprintf("state written by a newer schema (v%d, this binary uses v%d)", info.Schema, SchemaVersion)
		return c, nil
	case info.Schema < SchemaVersion:
		c.Upgrade = true
		c.Reason = fmt.Sprintf("upgrading state schema v%d to v%d", info.Schema, SchemaVersion)
	}

	if info.SettingsHash != "" && info.SettingsHash != SettingsHash(cfg) {
		c.Reset = true
		c.Reason = "generation settings changed"
	}
	return c, nil
}

// Prepare upgrades the schema step by step and records the current settings.
func (s *BoltStore) Prepare(cfg *config.Config) error {
	info, err := s.Info()
	if err != nil {
		return err
	}

	for v := info.Schema; v < SchemaVersion; v++ {
		if err := s.upgrade(v); err != nil {
			return fmt.Errorf("state upgrade v%d failed: %w", v, err)
		}
	}

	return s.setInfo(StateInfo{Schema: SchemaVersion, SettingsHash: SettingsHash(cfg)})
}

// upgrade moves the schema from version v to v+1.
func (s *BoltStore) upgrade(v int) error {
	if v != 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketArtifacts)
		return err
	})
}

// Clear forgets every recorded artifact. State info is kept.
func (s *BoltStore) Clear() error {
	return s.ReplaceArtifacts(nil)
}
