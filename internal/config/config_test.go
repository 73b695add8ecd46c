package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AUTH_JWT_SECRET", "shh")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_IDENTITY_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Database.Driver != "sqlite" || cfg.Auth.Secret != "shh" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Redis.IdentityTTL != 90*time.Minute {
		t.Errorf("identity ttl = %v", cfg.Redis.IdentityTTL)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Storage.Driver != "local" || cfg.Events.Driver != "none" || cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("defaults = storage %q events %q shutdown %v", cfg.Storage.Driver, cfg.Events.Driver, cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(".env", []byte("LOG_LEVEL=debug\nS3_BUCKET=pics\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("S3_BUCKET")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Storage.S3.Bucket != "pics" {
		t.Errorf("dotenv not applied: log %q bucket %q", cfg.Log.Level, cfg.Storage.S3.Bucket)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore cwd: %v", err)
		}
	})
}
