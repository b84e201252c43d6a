package artifact

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"

	DefaultPath     = "model.json"
	DefaultRedisKey = "placement-readiness:model"
)

// Store persists a single artifact.
type Store interface {
	Save(ctx context.Context, a *Artifact) error
	Load(ctx context.Context) (*Artifact, error)
	// Location describes where the artifact lives, for logs.
	Location() string
}

// FileStore keeps the artifact on local disk. Paths ending in ".gz" are gzip-compressed.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &FileStore{Path: path}
}

func (s *FileStore) Location() string { return s.Path }

func (s *FileStore) compressed() bool {
	return strings.HasSuffix(s.Path, ".gz")
}

// Save writes to a temporary file first and renames it, so readers never see a partial artifact.
func (s *FileStore) Save(_ context.Context, a *Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temporary artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.write(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("move artifact into place: %w", err)
	}

	return nil
}

func (s *FileStore) write(w io.Writer, data []byte) error {
	if !s.compressed() {
		_, err := w.Write(data)
		return err
	}

	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func (s *FileStore) Load(_ context.Context) (*Artifact, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, err)
	}
	defer file.Close()

	var r io.Reader = file
	if s.compressed() {
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrMissing, s.Path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %s", ErrMissing, s.Path, err)
	}

	return Unmarshal(data)
}

// RedisStore keeps the artifact as a single value so several hosts can score with it.
type RedisStore struct {
	client redis.Cmdable
	key    string
	addr   string
}

func NewRedisStore(client redis.Cmdable, key, addr string) *RedisStore {
	if strings.TrimSpace(key) == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, addr: addr}
}

func (s *RedisStore) Location() string {
	return fmt.Sprintf("redis://%s/%s", s.addr, s.key)
}

func (s *RedisStore) Save(ctx context.Context, a *Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store artifact in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*Artifact, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: key %s not found", ErrMissing, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get %s: %s", ErrMissing, s.key, err)
	}

	return Unmarshal(data)
}
