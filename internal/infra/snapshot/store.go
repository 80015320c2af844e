package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ogorek "github.com/kisielk/og-rek"
	"github.com/klauspost/compress/zstd"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// pickleProtocol is readable by every Python 3 release.
const pickleProtocol = 2

// Archiver mirrors snapshot files to secondary storage.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Store writes one snapshot file per requested date.
type Store struct {
	dir     string
	archive Archiver
	logger  *slog.Logger
}

// NewStore builds a snapshot store rooted at dir. archive may be nil.
func NewStore(dir string, archive Archiver, logger *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		archive: archive,
		logger:  logger.With("component", "snapshot.store"),
	}
}

// FileName is the snapshot name for a date exactly as the user typed it.
// Path separators are replaced so the file stays inside the store.
func FileName(rawDate string) string {
	safe := strings.NewReplacer("/", "-", `\`, "-").Replace(rawDate)
	return "data_" + safe + ".pickle"
}

// ArchiveKey is the object name of the compressed mirror copy.
func ArchiveKey(rawDate string) string {
	return FileName(rawDate) + ".zst"
}

// Save pickles bundle as a dict keyed by section name and, when configured,
// mirrors a zstd copy. A failed mirror is logged and otherwise ignored.
func (s *Store) Save(ctx context.Context, rawDate string, bundle fitness.Bundle) (string, error) {
	data, err := encode(bundle)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSnapshot, "encode snapshot", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.CodeSnapshot, "create snapshot dir", err)
	}
	path := filepath.Join(s.dir, FileName(rawDate))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Wrap(apperrors.CodeSnapshot, "write snapshot", err)
	}
	s.logger.Info("snapshot written", "path", path, "bytes", len(data))

	if s.archive != nil {
		key := ArchiveKey(rawDate)
		if err := s.mirror(ctx, key, data); err != nil {
			s.logger.Warn("snapshot archive failed", "key", key, "error", err)
		}
	}
	return path, nil
}

func (s *Store) mirror(ctx context.Context, key string, data []byte) error {
	compressed, err := compress(data)
	if err != nil {
		return err
	}
	return s.archive.Put(ctx, key, compressed)
}

// Load reads a snapshot written by Save or by any pickler of the same dict.
func Load(path string) (fitness.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshot, "read snapshot", err)
	}
	bundle, err := decode(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSnapshot, "decode snapshot "+path, err)
	}
	return bundle, nil
}

// decompress reverses the archive copy's compression.
func decompress(data []byte) ([]byte, error) {
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return zr.DecodeAll(data, nil)
}

func compress(data []byte) ([]byte, error) {
	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer zw.Close()
	return zw.EncodeAll(data, nil), nil
}

func encode(bundle fitness.Bundle) ([]byte, error) {
	dict := make(map[string]interface{}, len(bundle))
	for section, raw := range bundle {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("section %s: %w", section, err)
		}
		dict[string(section)] = toPickle(v)
	}
	var buf bytes.Buffer
	enc := ogorek.NewEncoderWithConfig(&buf, &ogorek.EncoderConfig{Protocol: pickleProtocol})
	if err := enc.Encode(dict); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (fitness.Bundle, error) {
	obj, err := ogorek.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("snapshot root is %T, want dict", obj)
	}
	bundle := make(fitness.Bundle, len(dict))
	for key, value := range dict {
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("snapshot key %v is not a string", key)
		}
		plain, err := fromPickle(value)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		raw, err := json.Marshal(plain)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		bundle[fitness.Section(name)] = raw
	}
	return bundle, nil
}

// toPickle keeps integral JSON numbers as ints so Python sees int, not float.
func toPickle(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = toPickle(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = toPickle(item)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// fromPickle maps unpickled values back onto types encoding/json accepts.
func fromPickle(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", k)
			}
			val, err := fromPickle(item)
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			val, err := fromPickle(item)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case ogorek.None:
		return nil, nil
	default:
		return v, nil
	}
}
