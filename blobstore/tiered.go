package blobstore

import (
	"context"
	"errors"
	"log/slog"
)

// TieredStore reads the authoritative remote Store and keeps a local copy
// that serves reads only while the remote is unreachable.
// Writes go to the remote first, then refresh the local copy.
type TieredStore struct {
	remote Store
	local  Store
	logger *slog.Logger
}

// NewTieredStore creates a TieredStore. A nil logger discards output.
func NewTieredStore(remote, local Store, logger *slog.Logger) *TieredStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TieredStore{remote: remote, local: local, logger: logger}
}

// Get returns the remote blob and refreshes the local copy. If the remote
// fails for any reason other than ErrNotFound, the local copy is returned.
func (s *TieredStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.remote.Get(ctx, name)
	if err == nil {
		if err := s.local.Put(ctx, name, data); err != nil {
			s.logger.WarnContext(ctx, "local blob fill failed", "name", name, "error", err)
		}
		return data, nil
	}
	if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "remote blob read failed, using local copy", "name", name, "error", err)
	local, lerr := s.local.Get(ctx, name)
	if lerr != nil {
		return nil, err
	}
	return local, nil
}

// Put writes the remote blob, then the local copy.
func (s *TieredStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.remote.Put(ctx, name, data); err != nil {
		return err
	}
	if err := s.local.Put(ctx, name, data); err != nil {
		s.logger.WarnContext(ctx, "local blob write failed", "name", name, "error", err)
	}
	return nil
}

// Delete removes the blob from both tiers.
func (s *TieredStore) Delete(ctx context.Context, name string) error {
	if err := s.remote.Delete(ctx, name); err != nil {
		return err
	}
	return s.local.Delete(ctx, name)
}

// List lists the remote tier, which is authoritative.
func (s *TieredStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.remote.List(ctx, prefix)
}
