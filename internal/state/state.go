// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package state

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blinklabs-io/powcore/internal/config"
	"github.com/blinklabs-io/powcore/internal/logging"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/dgraph-io/badger/v4"
)

var ErrClosed = errors.New("state is not open")

const (
	headerKeyPrefix = "header_"
	tipKey          = "tip"
)

type State struct {
	db *badger.DB
}

var globalState = &State{}

func (s *State) Load() error {
	cfg := config.GetConfig()
	return s.Open(cfg.State.Directory)
}

// Open opens (or creates) the header store in the given directory
func (s *State) Open(dir string) error {
	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *State) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Keys sort by height so that a prefix scan yields parents before children
func headerKey(height int64, hash [32]byte) []byte {
	return fmt.Appendf(nil, "%s%012d_%x", headerKeyPrefix, height, hash)
}

func (s *State) PutHeader(height int64, header *pow.BlockHeader) error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(headerKey(height, header.Hash()), header.Encode())
	})
	return err
}

// ForEachHeader calls fn for every stored header in ascending height order.
// Iteration stops at the first error returned by fn.
func (s *State) ForEachHeader(fn func(header *pow.BlockHeader) error) error {
	if s.db == nil {
		return ErrClosed
	}
	keyPrefix := []byte(headerKeyPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			var header *pow.BlockHeader
			err := item.Value(func(v []byte) error {
				var err error
				header, err = pow.NewBlockHeaderFromBytes(v)
				return err
			})
			if err != nil {
				return fmt.Errorf("bad header record %s: %w", item.Key(), err)
			}
			if err := fn(header); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func (s *State) UpdateTip(hash [32]byte) error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tipKey), []byte(hex.EncodeToString(hash[:])))
	})
	return err
}

// GetTip returns the stored tip hash, or false if none has been stored
func (s *State) GetTip() ([32]byte, bool, error) {
	var ret [32]byte
	if s.db == nil {
		return ret, false, ErrClosed
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tipKey))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			hashBytes, err := hex.DecodeString(string(v))
			if err != nil {
				return err
			}
			if len(hashBytes) != 32 {
				// This implies database corruption
				return fmt.Errorf("bad tip hash: %x", hashBytes)
			}
			ret = [32]byte(hashBytes)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ret, false, nil
	}
	if err != nil {
		return ret, false, err
	}
	return ret, true, nil
}

func GetState() *State {
	return globalState
}

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	*logging.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{
		Logger: logging.GetLogger(),
	}
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.Logger.Warnf(msg, args...)
}
