package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	kvBucket       = []byte("kv")
	gamesBucket    = []byte("games")
	installsBucket = []byte("installs")
	metaBucket     = []byte("metadata")
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting up to timeout for the file lock.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{kvBucket, gamesBucket, installsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value stored under key, or nil when absent.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(kvBucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *Store) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), value)
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Delete([]byte(key))
	})
}

// ReplaceGames swaps every stored game of platform for games in one transaction.
func (s *Store) ReplaceGames(platform string, games []*Game) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(gamesBucket)

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var game Game
			if err := json.Unmarshal(v, &game); err != nil {
				continue
			}
			if game.Platform == platform {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}

		for _, game := range games {
			if game.Platform != platform {
				return fmt.Errorf("game %s belongs to %q, not %q", game.ID, game.Platform, platform)
			}
			data, err := json.Marshal(game)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(game.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGames returns the games of platform ("" for all) sorted by name, with
// any tracked install state applied.
func (s *Store) GetGames(platform string) ([]*Game, error) {
	var games []*Game
	err := s.db.View(func(tx *bolt.Tx) error {
		installs := tx.Bucket(installsBucket)
		return tx.Bucket(gamesBucket).ForEach(func(_ []byte, v []byte) error {
			var game Game
			if err := json.Unmarshal(v, &game); err != nil {
				return nil
			}
			if platform != "" && game.Platform != platform {
				return nil
			}
			applyInstall(installs, &game)
			games = append(games, &game)
			return nil
		})
	})
	sort.SliceStable(games, func(i, j int) bool {
		return strings.ToLower(games[i].Name) < strings.ToLower(games[j].Name)
	})
	return games, err
}

func (s *Store) GetGame(id string) (*Game, error) {
	var game Game
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(gamesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("game %s: %w", id, ErrNotFound)
		}
		if err := json.Unmarshal(data, &game); err != nil {
			return err
		}
		applyInstall(tx.Bucket(installsBucket), &game)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func applyInstall(b *bolt.Bucket, game *Game) {
	data := b.Get([]byte(game.ID))
	if data == nil {
		return
	}
	var state InstallState
	if err := json.Unmarshal(data, &state); err == nil {
		state.Apply(game)
	}
}

// InstallState returns the tracked state for id, or nil when none is tracked.
func (s *Store) InstallState(id string) (*InstallState, error) {
	var state *InstallState
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(installsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		state = &InstallState{}
		return json.Unmarshal(data, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) SetInstallState(id string, state InstallState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return tx.Bucket(installsBucket).Put([]byte(id), data)
	})
}

func syncKey(platform string) []byte {
	return []byte("sync:" + platform)
}

func (s *Store) SaveSyncRecord(rec SyncRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(syncKey(rec.Platform), data)
	})
}

// LastSync returns the most recent sync record for platform.
func (s *Store) LastSync(platform string) (*SyncRecord, error) {
	var rec SyncRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(syncKey(platform))
		if data == nil {
			return fmt.Errorf("sync record for %s: %w", platform, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
