package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080 got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("expected postgres driver got %s", cfg.Store.Driver)
	}
	if cfg.Game.MaxRound != 3 || cfg.Game.SecretSlots != 3 || cfg.Game.RumorSlots != 16 {
		t.Errorf("unexpected game defaults %+v", cfg.Game)
	}
	if cfg.Game.QRWordSlots != 24 || cfg.Game.SentenceWords != 24 {
		t.Errorf("unexpected qr defaults %+v", cfg.Game)
	}
	if cfg.Game.LockVotes {
		t.Error("votes must be overwritable by default")
	}
	if len(cfg.Game.ExcludedCharacterIDs) != 5 {
		t.Errorf("expected 5 excluded ids got %v", cfg.Game.ExcludedCharacterIDs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must be valid: %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("MYSTERY_DB_PASSWORD", "hunter2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
store:
  driver: memory
postgres:
  password: ${MYSTERY_DB_PASSWORD}
sync:
  interval: 30s
game:
  pot_character_id: pot
  excluded_character_ids: [pot]
  lock_votes: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected 9090 got %d", cfg.Server.Port)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Errorf("expected expanded password got %q", cfg.Postgres.Password)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Errorf("expected 30s got %s", cfg.Sync.Interval)
	}
	if cfg.Game.PotCharacterID != "pot" || len(cfg.Game.ExcludedCharacterIDs) != 1 {
		t.Errorf("unexpected game config %+v", cfg.Game)
	}
	if !cfg.Game.LockVotes {
		t.Error("expected lock_votes true")
	}
	if cfg.Game.RumorSlots != 16 {
		t.Errorf("expected default rumor slots got %d", cfg.Game.RumorSlots)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: firestore\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	c := PostgresConfig{User: "u", Password: "p", Host: "db", Port: 5432, Database: "mm"}
	want := "postgres://u:p@db:5432/mm?sslmode=disable"
	if got := c.ConnectionString(); got != want {
		t.Errorf("expected %s got %s", want, got)
	}
}
