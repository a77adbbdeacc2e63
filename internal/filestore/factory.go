package filestore

import "fmt"

// Factory builds the configured FileStorage backend, following
// internal/storage/factory.go's switch-on-type idiom.
type Factory struct {
	backend    Backend
	localDir   string
	s3Opts     S3Options
}

func NewFactory(backend Backend, localDir string, s3Opts S3Options) *Factory {
	return &Factory{backend: backend, localDir: localDir, s3Opts: s3Opts}
}

func (f *Factory) Create() (FileStorage, error) {
	switch f.backend {
	case BackendLocal:
		return NewLocalFileStorage(f.localDir)
	case BackendS3:
		if f.s3Opts.BucketName == "" {
			return nil, fmt.Errorf("S3 bucket name is required when using S3 storage")
		}
		return NewS3FileStorage(f.s3Opts)
	default:
		return nil, fmt.Errorf("unsupported file storage backend: %s", f.backend)
	}
}
