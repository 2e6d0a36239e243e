package progress

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
)

// Key layout: "playback:<storyID>" per story, "playback:last_played" for the
// global slot. Story IDs are numeric so the global key can never collide.
const (
	keyPrefix     = "playback:"
	lastPlayedKey = keyPrefix + "last_played"
)

// DB is the Badger-backed Store.
type DB struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the progress database at the given path.
func Open(path string, logger *slog.Logger) (*DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's own logging is noise here
	opts.SyncWrites = true // checkpoints must survive a crash

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("progress database opened", "path", path)
	}

	return &DB{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

// SaveProgress implements Store. The per-story record and the last-played
// slot are written in a single transaction so readers never see them skew.
func (s *DB) SaveProgress(ctx context.Context, p domain.PlaybackProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.Touch()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(storyKey(p.StoryID)), data); err != nil {
			return fmt.Errorf("set story progress: %w", err)
		}
		if err := txn.Set([]byte(lastPlayedKey), data); err != nil {
			return fmt.Errorf("set last played: %w", err)
		}
		return nil
	})
}

// GetProgress implements Store.
func (s *DB) GetProgress(ctx context.Context, storyID int64) (*domain.PlaybackProgress, error) {
	return s.getRecord(ctx, storyKey(storyID))
}

// GetLastPlayed implements Store.
func (s *DB) GetLastPlayed(ctx context.Context) (*domain.PlaybackProgress, error) {
	return s.getRecord(ctx, lastPlayedKey)
}

// getRecord reads and decodes one checkpoint. A key miss and a record that no
// longer decodes are both ErrProgressNotFound.
func (s *DB) getRecord(ctx context.Context, key string) (*domain.PlaybackProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.PlaybackProgress
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrProgressNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &p); err != nil {
				if s.logger != nil {
					s.logger.Warn("discarding malformed progress record", "key", key, "error", err)
				}
				return ErrProgressNotFound
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClearProgress implements Store.
func (s *DB) ClearProgress(ctx context.Context, storyID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(storyKey(storyID)))
	})
}

// ClearAll implements Store. Removes every key under the playback namespace,
// which includes the last-played slot.
func (s *DB) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Seek([]byte(keyPrefix)); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// AllProgress implements Store. Returns per-story records sorted by
// UpdatedAt descending; the last-played slot is excluded since it duplicates
// one of them. Malformed records are skipped.
func (s *DB) AllProgress(ctx context.Context) ([]*domain.PlaybackProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*domain.PlaybackProgress

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(keyPrefix)); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			item := it.Item()
			if string(item.Key()) == lastPlayedKey {
				continue
			}

			err := item.Value(func(val []byte) error {
				var p domain.PlaybackProgress
				if err := json.Unmarshal(val, &p); err != nil {
					if s.logger != nil {
						s.logger.Warn("skipping malformed progress record", "key", string(item.Key()), "error", err)
					}
					return nil
				}
				records = append(records, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt > records[j].UpdatedAt
	})

	return records, nil
}

func storyKey(storyID int64) string {
	return keyPrefix + strconv.FormatInt(storyID, 10)
}
