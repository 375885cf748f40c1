package store

import (
	"path/filepath"
	"testing"

	"talibgen/config"
	"talibgen/internal/domain"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestBoltStore_ReplaceAndList(t *testing.T) {
	st := openStore(t)

	first := []domain.ArtifactRecord{
		{Module: "sma", Digest: "d1"},
		{Module: "ema", Digest: "d2"},
	}
	if err := st.ReplaceArtifacts(first); err != nil {
		t.Fatal(err)
	}

	records, err := st.ListArtifacts()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Module != "ema" || records[1].Module != "sma" {
		t.Errorf("unexpected records %+v", records)
	}

	if err := st.ReplaceArtifacts(first[:1]); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := st.GetArtifact("ema"); found {
		t.Error("expected ema to be dropped by replace")
	}
	rec, found, err := st.GetArtifact("sma")
	if err != nil || !found {
		t.Fatalf("expected sma record, got found=%v err=%v", found, err)
	}
	if rec.Digest != "d1" {
		t.Errorf("expected digest d1, got %s", rec.Digest)
	}
}

func TestBoltStore_Clear(t *testing.T) {
	st := openStore(t)
	if err := st.ReplaceArtifacts([]domain.ArtifactRecord{{Module: "sma"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}
	records, err := st.ListArtifacts()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty store, got %d records", len(records))
	}
}

func TestCheck(t *testing.T) {
	st := openStore(t)
	cfg := config.DefaultConfig()

	c, err := st.Check(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Upgrade || c.Reset {
		t.Errorf("fresh store should need an upgrade only, got %+v", c)
	}

	if err := st.Prepare(cfg); err != nil {
		t.Fatal(err)
	}
	c, err = st.Check(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.Upgrade || c.Reset {
		t.Errorf("prepared store should be current, got %+v", c)
	}

	changed := config.DefaultConfig()
	changed.Generate.Crate = "other"
	c, err = st.Check(changed)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Reset {
		t.Error("expected reset after crate change")
	}
}

func TestCheck_NewerSchema(t *testing.T) {
	st := openStore(t)
	if err := st.setInfo(StateInfo{Schema: SchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}
	c, err := st.Check(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !c.Reset {
		t.Errorf("expected reset for newer schema, got %+v", c)
	}
}

func TestSettingsHash(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	b.Generate.Workers = 16
	b.Logging.Level = "debug"

	if SettingsHash(a) != SettingsHash(b) {
		t.Error("runtime-only settings should not change the settings hash")
	}

	// Field boundaries are part of the hash.
	c := config.DefaultConfig()
	c.Generate.Prefix = "TA_t"
	c.Generate.Crate = "a_lib_wrapper"
	if SettingsHash(a) == SettingsHash(c) {
		t.Error("shifting text between fields should change the settings hash")
	}
}
