package kv

import (
	"encoding"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/prefkit/prefkit"
)

// Kind identifies the primitive type of a stored value.
type Kind uint8

// Storage kinds.
const (
	KindBool Kind = iota + 1
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindStringSet
)

var kindNames = [...]string{
	KindBool:      "bool",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindDouble:    "double",
	KindBytes:     "bytes",
	KindString:    "string",
	KindStringSet: "stringSet",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// StoreOptions selects and configures a store.
type StoreOptions struct {
	// ID is the namespace of the store. Stores with the same ID share keys.
	ID string
	// Expire, when positive, is the lifetime of every written entry.
	Expire time.Duration
	// CryptKey, when set, encrypts every value written by the store.
	CryptKey string
}

// Opener opens stores. It is implemented by DB.
type Opener interface {
	Store(StoreOptions) Store
}

// Store is a namespace of typed values addressed by string keys. Every single
// read and write is atomic; there are no multi-key transactions.
//
// Decode methods return the supplied default when the key is absent, holds a
// value of a different kind or cannot be decoded. Lookup methods report the
// same cases with a false second result. Encoding a nil slice or set removes
// the key.
type Store interface {
	ID() string
	ContainsKey(key string) bool
	Remove(key string) error
	Keys() []string
	Clear() error

	EncodeBool(key string, v bool) error
	EncodeInt(key string, v int32) error
	EncodeLong(key string, v int64) error
	EncodeFloat(key string, v float32) error
	EncodeDouble(key string, v float64) error
	EncodeBytes(key string, v []byte) error
	EncodeString(key string, v string) error
	EncodeStringSet(key string, v prefkit.Set[string]) error
	EncodeValue(key string, v encoding.BinaryMarshaler) error

	DecodeBool(key string, def bool) bool
	DecodeInt(key string, def int32) int32
	DecodeLong(key string, def int64) int64
	DecodeFloat(key string, def float32) float32
	DecodeDouble(key string, def float64) float64
	DecodeBytes(key string, def []byte) []byte
	DecodeString(key string, def string) string
	DecodeStringSet(key string, def prefkit.Set[string]) prefkit.Set[string]
	DecodeValue(key string, v encoding.BinaryUnmarshaler) bool

	LookupBool(key string) (bool, bool)
	LookupInt(key string) (int32, bool)
	LookupLong(key string) (int64, bool)
	LookupFloat(key string) (float32, bool)
	LookupDouble(key string) (float64, bool)
	LookupBytes(key string) ([]byte, bool)
	LookupString(key string) (string, bool)
	LookupStringSet(key string) (prefkit.Set[string], bool)
}

// envelope is the stored representation of a value.
type envelope struct {
	Kind  Kind               `msgpack:"k"`
	Value msgpack.RawMessage `msgpack:"v"`
}

type store struct {
	db     *badger.DB
	id     string
	prefix []byte
	ttl    time.Duration
	sealer *sealer
	logger *zap.Logger
}

var _ Store = (*store)(nil)

func newStore(d *DB, opts StoreOptions) *store {
	s := &store{
		db:     d.db,
		id:     opts.ID,
		prefix: append([]byte(opts.ID), 0),
		ttl:    opts.Expire,
		logger: d.logger.With(zap.String("store", opts.ID)),
	}
	if opts.CryptKey != "" {
		s.sealer = newSealer(opts.CryptKey, opts.ID)
	}
	return s
}

func (s *store) ID() string { return s.id }

func (s *store) key(k string) []byte {
	return append(slices.Clip(s.prefix), k...)
}

func (s *store) ContainsKey(key string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(key))
		return err
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		s.logger.Warn("contains key", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

func (s *store) Remove(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
	if err != nil {
		return fmt.Errorf("kv: remove %s/%s: %w", s.id, key, err)
	}
	return nil
}

// Keys returns the keys of the store in ascending order.
func (s *store) Keys() []string {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(s.prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(s.prefix):]))
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("list keys", zap.Error(err))
	}
	return keys
}

// Clear removes every key of the store.
func (s *store) Clear() error {
	if err := s.db.DropPrefix(s.prefix); err != nil {
		return fmt.Errorf("kv: clear %s: %w", s.id, err)
	}
	return nil
}

func (s *store) EncodeBool(key string, v bool) error      { return s.encode(key, KindBool, v) }
func (s *store) EncodeInt(key string, v int32) error      { return s.encode(key, KindInt, v) }
func (s *store) EncodeLong(key string, v int64) error     { return s.encode(key, KindLong, v) }
func (s *store) EncodeFloat(key string, v float32) error  { return s.encode(key, KindFloat, v) }
func (s *store) EncodeDouble(key string, v float64) error { return s.encode(key, KindDouble, v) }
func (s *store) EncodeString(key string, v string) error  { return s.encode(key, KindString, v) }

func (s *store) EncodeBytes(key string, v []byte) error {
	if v == nil {
		return s.Remove(key)
	}
	return s.encode(key, KindBytes, v)
}

func (s *store) EncodeStringSet(key string, v prefkit.Set[string]) error {
	if v == nil {
		return s.Remove(key)
	}
	return s.encode(key, KindStringSet, prefkit.Sorted(v))
}

// EncodeValue stores the binary form of v as bytes.
func (s *store) EncodeValue(key string, v encoding.BinaryMarshaler) error {
	b, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("kv: marshal %s/%s: %w", s.id, key, err)
	}
	if b == nil {
		b = []byte{}
	}
	return s.encode(key, KindBytes, b)
}

func (s *store) DecodeBool(key string, def bool) bool { return decode(s, key, KindBool, def) }
func (s *store) DecodeInt(key string, def int32) int32 { return decode(s, key, KindInt, def) }
func (s *store) DecodeLong(key string, def int64) int64 { return decode(s, key, KindLong, def) }
func (s *store) DecodeFloat(key string, def float32) float32 {
	return decode(s, key, KindFloat, def)
}
func (s *store) DecodeDouble(key string, def float64) float64 {
	return decode(s, key, KindDouble, def)
}
func (s *store) DecodeBytes(key string, def []byte) []byte { return decode(s, key, KindBytes, def) }
func (s *store) DecodeString(key string, def string) string {
	return decode(s, key, KindString, def)
}

func (s *store) DecodeStringSet(key string, def prefkit.Set[string]) prefkit.Set[string] {
	if v, ok := s.LookupStringSet(key); ok {
		return v
	}
	return def
}

func (s *store) LookupBool(key string) (bool, bool)       { return lookup[bool](s, key, KindBool) }
func (s *store) LookupInt(key string) (int32, bool)       { return lookup[int32](s, key, KindInt) }
func (s *store) LookupLong(key string) (int64, bool)      { return lookup[int64](s, key, KindLong) }
func (s *store) LookupFloat(key string) (float32, bool)   { return lookup[float32](s, key, KindFloat) }
func (s *store) LookupDouble(key string) (float64, bool)  { return lookup[float64](s, key, KindDouble) }
func (s *store) LookupBytes(key string) ([]byte, bool)    { return lookup[[]byte](s, key, KindBytes) }
func (s *store) LookupString(key string) (string, bool)   { return lookup[string](s, key, KindString) }

func (s *store) LookupStringSet(key string) (prefkit.Set[string], bool) {
	values, ok := lookup[[]string](s, key, KindStringSet)
	if !ok {
		return nil, false
	}
	return prefkit.NewSet(values...), true
}

// DecodeValue unmarshals the stored bytes into v and reports whether it did.
func (s *store) DecodeValue(key string, v encoding.BinaryUnmarshaler) bool {
	b, ok := lookup[[]byte](s, key, KindBytes)
	if !ok {
		return false
	}
	if err := v.UnmarshalBinary(b); err != nil {
		s.logger.Warn("unmarshal value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *store) encode(key string, kind Kind, v any) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s/%s: %w", s.id, key, err)
	}
	buf, err := msgpack.Marshal(&envelope{Kind: kind, Value: raw})
	if err != nil {
		return fmt.Errorf("kv: encode %s/%s: %w", s.id, key, err)
	}
	k := s.key(key)
	if s.sealer != nil {
		if buf, err = s.sealer.seal(buf, k); err != nil {
			return fmt.Errorf("kv: encrypt %s/%s: %w", s.id, key, err)
		}
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(k, buf)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		s.logger.Error("write", zap.String("key", key), zap.Stringer("kind", kind), zap.Error(err))
		return fmt.Errorf("kv: write %s/%s: %w", s.id, key, err)
	}
	return nil
}

func decode[T any](s *store, key string, kind Kind, def T) T {
	if v, ok := lookup[T](s, key, kind); ok {
		return v
	}
	return def
}

// lookup reads key and decodes it as kind. It reports false when the key is
// absent or holds something else.
func lookup[T any](s *store, key string, kind Kind) (T, bool) {
	var zero T
	k := s.key(key)
	var buf []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false
	}
	if err != nil {
		s.logger.Warn("read", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if s.sealer != nil {
		if buf, err = s.sealer.open(buf, k); err != nil {
			s.logger.Warn("decrypt", zap.String("key", key), zap.Error(err))
			return zero, false
		}
	}
	var env envelope
	if err := msgpack.Unmarshal(buf, &env); err != nil {
		s.logger.Warn("decode envelope", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if env.Kind != kind {
		s.logger.Debug("kind mismatch", zap.String("key", key),
			zap.Stringer("stored", env.Kind), zap.Stringer("requested", kind))
		return zero, false
	}
	var v T
	if err := msgpack.Unmarshal(env.Value, &v); err != nil {
		s.logger.Warn("decode value", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	// An empty byte slice is a value, not an absence.
	if b, isBytes := any(v).([]byte); isBytes && b == nil {
		v = any([]byte{}).(T)
	}
	return v, true
}
