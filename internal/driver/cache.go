package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"veld/internal/ast"
	"veld/internal/pref"
	"veld/internal/source"
)

// cacheSchemaVersion invalidates every stored payload when the Payload
// layout changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies one build input set.
type Digest [32]byte

// DiskCache stores generated backend output keyed by the digest of the
// inputs. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the cached artifact for one build.
type Payload struct {
	Schema    uint16
	Backend   uint8
	FilePaths []string
	Output    []byte
}

// OpenDiskCache initializes the cache at the standard user location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes the cache at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "builds", hex.EncodeToString(key[:])+".mp")
}

// Put writes a payload atomically: encode to a temp file, then rename.
func (c *DiskCache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload; a missing entry or a schema mismatch is a clean
// miss, not an error.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached payload.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "builds"))
}

// buildDigest combines schema version, backend selection, and the
// content hash of every input file, in input order.
func buildDigest(prefs *pref.Preferences, fset *source.FileSet, files []*ast.File) Digest {
	h := sha256.New()
	h.Write([]byte{byte(cacheSchemaVersion >> 8), byte(cacheSchemaVersion), byte(prefs.Backend)})
	for _, f := range files {
		if sf, ok := fset.GetByPath(f.Path); ok {
			h.Write(sf.Hash[:])
		} else {
			h.Write([]byte(f.Path))
		}
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
