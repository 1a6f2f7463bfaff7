package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesEnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("DOCINSIGHT_JWT_SECRET", "env-secret")
	t.Setenv("DOCINSIGHT_DATABASE_MYSQL_DSN", "user:pass@tcp(db:3306)/docs")
	t.Setenv("DOCINSIGHT_STORAGE_PATH_STYLE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.Database.MySQL.DSN != "user:pass@tcp(db:3306)/docs" {
		t.Fatalf("dsn = %q", cfg.Database.MySQL.DSN)
	}
	if !cfg.Storage.PathStyle {
		t.Fatalf("expected path style from env")
	}
	if cfg.Upload.MaxSizeBytes != 5*1024*1024 {
		t.Fatalf("max size default = %d", cfg.Upload.MaxSizeBytes)
	}
	if cfg.JWT.TokenExpireHours != 24 {
		t.Fatalf("token expiry default = %d", cfg.JWT.TokenExpireHours)
	}
	if cfg.LLM.Generation.MaxTokens != 500 {
		t.Fatalf("max tokens default = %d", cfg.LLM.Generation.MaxTokens)
	}
}

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
database:
  mysql:
    dsn: "root@tcp(localhost:3306)/x"
jwt:
  secret: "file-secret"
storage:
  bucket_name: "invoices"
ocr:
  language: "deu"
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.BucketName != "invoices" {
		t.Fatalf("bucket = %q", cfg.Storage.BucketName)
	}
	if cfg.OCR.Language != "deu" {
		t.Fatalf("ocr language = %q", cfg.OCR.Language)
	}
	if cfg.Server.Port != "3001" {
		t.Fatalf("port default = %q", cfg.Server.Port)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when jwt secret and dsn are missing")
	}
}
