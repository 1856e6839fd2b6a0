// Package file provides a key/value store that persists keyspaces as plain
// files on the local filesystem.
//
// Each keyspace is a directory and each key/value pair is a single file. Writes
// replace files atomically, so a reader sees either the previous value or the
// new one, never a partial write.
//
// A file holding a short key is named after the hex-encoded key and contains
// only the value. Keys too long to fit in a file name are stored in files named
// after the SHA-256 digest of the key, and the file begins with a header
// containing the key itself.
package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/soletrym/snipstore/persistence/kv"
)

// KeyValueStore is an implementation of [kv.Store] that stores keyspaces in a
// directory on the local filesystem.
type KeyValueStore struct {
	// Dir is the directory under which keyspaces are stored. It is created if
	// it does not already exist.
	Dir string
}

const (
	dirPerm    = 0o700
	tempPrefix = ".tmp-"

	plainPrefix  = "k-"
	hashedPrefix = "h-"

	// maxPlainKeySize is the largest key that is stored under its hex-encoded
	// name. Most filesystems limit names to 255 bytes.
	maxPlainKeySize = (255 - len(plainPrefix)) / 2
)

// Open returns the keyspace with the given name.
func (s *KeyValueStore) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	if s.Dir == "" {
		return nil, errors.New("file store directory must not be empty")
	}

	dir := filepath.Join(s.Dir, "ks-"+hex.EncodeToString([]byte(name)))
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("could not create keyspace directory: %w", err)
	}

	return &keyspace{dir: dir}, ctx.Err()
}

type keyspace struct {
	dir string
}

// path returns the name of the file that holds k, and whether that file
// begins with a key header.
func (ks *keyspace) path(k []byte) (string, bool) {
	if len(k) <= maxPlainKeySize {
		return filepath.Join(ks.dir, plainPrefix+hex.EncodeToString(k)), false
	}

	sum := sha256.Sum256(k)
	return filepath.Join(ks.dir, hashedPrefix+hex.EncodeToString(sum[:])), true
}

// encodeHeader returns the header written before the value in files named
// after a key digest.
func encodeHeader(k []byte) []byte {
	h := binary.AppendUvarint(nil, uint64(len(k)))
	return append(h, k...)
}

// decodeHeader splits the content of a file named after a key digest into the
// key and the value.
func decodeHeader(data []byte) (k, v []byte, err error) {
	n, size := binary.Uvarint(data)
	if size <= 0 || uint64(len(data)-size) < n {
		return nil, nil, errors.New("file is corrupt: invalid key header")
	}

	data = data[size:]
	return data[:n], data[n:], nil
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	p, hashed := ks.path(k)

	v, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if hashed {
		var stored []byte
		stored, v, err = decodeHeader(v)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", p, err)
		}

		if !bytes.Equal(stored, k) {
			return nil, false, fmt.Errorf("%s: file is corrupt: holds a different key", p)
		}
	}

	if v == nil {
		v = []byte{}
	}

	return v, true, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, _ := ks.path(k)

	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, hashed := ks.path(k)

	f, err := os.CreateTemp(ks.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	var header []byte
	if hashed {
		header = encodeHeader(k)
	}

	if err := writeAndSync(f, header, v); err != nil {
		os.Remove(tmp) // nolint:errcheck
		return err
	}

	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp) // nolint:errcheck
		return err
	}

	return nil
}

func writeAndSync(f *os.File, header, v []byte) error {
	if _, err := f.Write(header); err != nil {
		f.Close() // nolint:errcheck
		return err
	}

	if _, err := f.Write(v); err != nil {
		f.Close() // nolint:errcheck
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close() // nolint:errcheck
		return err
	}

	return f.Close()
}

func (ks *keyspace) Delete(ctx context.Context, k []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, _ := ks.path(k)

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.RangeFunc,
) error {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := e.Name()
		if e.IsDir() {
			continue
		}

		var k []byte
		hashed := strings.HasPrefix(name, hashedPrefix)

		if !hashed {
			if !strings.HasPrefix(name, plainPrefix) {
				continue
			}

			k, err = hex.DecodeString(strings.TrimPrefix(name, plainPrefix))
			if err != nil {
				continue
			}
		}

		p := filepath.Join(ks.dir, name)

		v, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// deleted since the directory was read
				continue
			}
			return err
		}

		if hashed {
			k, v, err = decodeHeader(v)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
		}

		if v == nil {
			v = []byte{}
		}

		ok, err := fn(ctx, k, v)
		if !ok || err != nil {
			return err
		}
	}

	return nil
}

func (ks *keyspace) Close() error {
	return nil
}
