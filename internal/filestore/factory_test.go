package filestore

import "testing"

func TestFactoryCreateLocal(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(BackendLocal, dir, S3Options{})
	storage, err := f.Create()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := storage.(*LocalFileStorage); !ok {
		t.Fatalf("expected *LocalFileStorage, got %T", storage)
	}
}

func TestFactoryCreateS3MissingBucket(t *testing.T) {
	f := NewFactory(BackendS3, "", S3Options{Region: "us-east-1"})
	if _, err := f.Create(); err == nil {
		t.Fatal("expected error when S3 bucket name is missing")
	}
}

func TestFactoryCreateUnsupportedBackend(t *testing.T) {
	f := NewFactory(Backend("ftp"), "", S3Options{})
	if _, err := f.Create(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
