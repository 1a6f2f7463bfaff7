package storage

import (
	"errors"
	"regexp"
	"testing"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"

	"github.com/minio/minio-go/v7"
)

var keyPattern = regexp.MustCompile(`^42/[0-9a-f-]{36}\.png$`)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(42, "Invoice.PNG")
	if !keyPattern.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if ObjectKey(42, "a.png") == ObjectKey(42, "a.png") {
		t.Fatal("keys for the same name must differ")
	}
}

func TestObjectKeyWithoutExtension(t *testing.T) {
	key := ObjectKey(1, "scan")
	if !regexp.MustCompile(`^1/[0-9a-f-]{36}$`).MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestNewStoreDefaultsToS3(t *testing.T) {
	s, err := NewStore(config.StorageConfig{
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
		Region:          "eu-west-1",
		BucketName:      "docs",
		UseSSL:          true,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := s.client.EndpointURL().Host; got != defaultEndpoint {
		t.Fatalf("endpoint = %q", got)
	}
	if s.Bucket() != "docs" {
		t.Fatalf("bucket = %q", s.Bucket())
	}
}

func TestNewStoreCustomEndpoint(t *testing.T) {
	s, err := NewStore(config.StorageConfig{
		Endpoint:   "localhost:9000",
		BucketName: "docs",
		PathStyle:  true,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := s.client.EndpointURL().Host; got != "localhost:9000" {
		t.Fatalf("endpoint = %q", got)
	}
}

func TestClassify(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	if err := classify(missing, "get"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	denied := minio.ErrorResponse{Code: "AccessDenied"}
	if err := classify(denied, "get"); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
