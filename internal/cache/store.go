// Package cache memoizes dataset loads keyed by source identity: the BLAKE3
// hash of the source bytes together with the load options. Results are kept
// in memory and, optionally, as compressed snapshots on disk.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/salesdash/internal/codec"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

// snapshotVersion is bumped whenever the snapshot layout or the load stages
// change in a way that invalidates existing entries.
const snapshotVersion = 1

const (
	fileExt    = ".sdc"
	headerSize = 4 + 1 + 4 // magic, compression tag, uncompressed size
)

var magic = [4]byte{'S', 'D', 'C', snapshotVersion}

// Key identifies one load: the source bytes plus the options applied to them.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor hashes source and the CBOR form of opt.
func KeyFor(source []byte, opt dataset.Options) (Key, error) {
	enc, err := codec.Marshal(opt)
	if err != nil {
		return Key{}, fmt.Errorf("encode load options: %w", err)
	}
	h := blake3.New()
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(source)))
	h.Write([]byte("salesdash.load.v1"))
	h.Write(prefix[:])
	h.Write(source)
	h.Write(enc)
	var k Key
	copy(k[:], h.Sum(nil))
	return k, nil
}

// Options configures a Store.
type Options struct {
	// Dir holds disk snapshots; empty disables them.
	Dir         string
	Compression CompressionTag
	Logger      *slog.Logger
}

// Store is a load cache. It is safe for concurrent use; concurrent loads of
// the same key share one underlying load.
type Store struct {
	dir   string
	tag   CompressionTag
	log   *slog.Logger
	group singleflight.Group

	mu  sync.Mutex
	mem map[Key]*dataset.Dataset
}

// New creates a Store.
func New(opt Options) *Store {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: opt.Dir, tag: opt.Compression, log: log, mem: make(map[Key]*dataset.Dataset)}
}

// Load returns the cleaned dataset for path, from memory, then disk, then a
// fresh load. Disk snapshot failures are logged and never fatal.
func (s *Store) Load(path string, opt dataset.Options) (*dataset.Dataset, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &dataset.IOError{Path: path, Err: err}
	}
	key, err := KeyFor(src, opt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ds, ok := s.mem[key]
	s.mu.Unlock()
	if ok {
		s.log.Debug("cache hit", "layer", "memory", "key", key.String()[:12])
		return ds, nil
	}

	v, err, shared := s.group.Do(key.String(), func() (any, error) {
		if ds, err := s.readSnapshot(key); err == nil {
			s.log.Debug("cache hit", "layer", "disk", "key", key.String()[:12])
			ds.Report.Source = path
			return ds, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("cache snapshot unreadable", "key", key.String()[:12], "error", err)
		}
		s.log.Debug("cache miss", "key", key.String()[:12])
		ds, err := dataset.Load(bytes.NewReader(src), opt)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		ds.Report.Source = path
		if err := s.writeSnapshot(key, ds); err != nil {
			s.log.Warn("cache snapshot not written", "key", key.String()[:12], "error", err)
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	ds = v.(*dataset.Dataset)
	if shared {
		s.log.Debug("cache load shared", "key", key.String()[:12])
	}
	s.mu.Lock()
	s.mem[key] = ds
	s.mu.Unlock()
	return ds, nil
}

type snapshot struct {
	Key     string             `cbor:"key"`
	Created time.Time          `cbor:"created"`
	Report  dataset.LoadReport `cbor:"report"`
	Table   dataset.Snapshot   `cbor:"table"`
}

func (s *Store) snapshotPath(key Key) string {
	return filepath.Join(s.dir, key.String()+fileExt)
}

func (s *Store) writeSnapshot(key Key, ds *dataset.Dataset) error {
	if s.dir == "" {
		return nil
	}
	payload, err := codec.Marshal(snapshot{
		Key:     key.String(),
		Created: time.Now().UTC(),
		Report:  ds.Report,
		Table:   ds.Table.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	body, tag, err := compress(payload, s.tag)
	if err != nil {
		return err
	}
	buf := make([]byte, headerSize, headerSize+len(body))
	copy(buf, magic[:])
	buf[4] = byte(tag)
	binary.LittleEndian.PutUint32(buf[5:], uint32(len(payload)))
	buf = append(buf, body...)
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return utils.SafeWriteFile(s.snapshotPath(key), buf)
}

func (s *Store) readSnapshot(key Key) (*dataset.Dataset, error) {
	if s.dir == "" {
		return nil, os.ErrNotExist
	}
	snap, _, err := readSnapshotFile(s.snapshotPath(key))
	if err != nil {
		return nil, err
	}
	if snap.Key != key.String() {
		return nil, fmt.Errorf("snapshot key mismatch")
	}
	t, err := dataset.FromSnapshot(snap.Table)
	if err != nil {
		return nil, err
	}
	return &dataset.Dataset{Table: t, Report: snap.Report}, nil
}

func readSnapshotFile(path string) (*snapshot, CompressionTag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < headerSize || !bytes.Equal(raw[:4], magic[:]) {
		return nil, 0, fmt.Errorf("%s: not a snapshot of this version", filepath.Base(path))
	}
	tag := CompressionTag(raw[4])
	size := int(binary.LittleEndian.Uint32(raw[5:headerSize]))
	payload, err := decompress(raw[headerSize:], tag, size)
	if err != nil {
		return nil, 0, err
	}
	var snap snapshot
	if err := codec.Unmarshal(payload, &snap); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, tag, nil
}

// Entry describes one disk snapshot.
type Entry struct {
	Key         string    `json:"key"`
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	Size        int64     `json:"size"`
	Compression string    `json:"compression"`
	Created     time.Time `json:"created"`
}

// Entries lists disk snapshots, newest first. Unreadable files are skipped.
func (s *Store) Entries() ([]Entry, error) {
	if s.dir == "" {
		return nil, nil
	}
	des, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	var out []Entry
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		snap, tag, err := readSnapshotFile(path)
		if err != nil {
			s.log.Debug("skip cache entry", "file", de.Name(), "error", err)
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Key:         snap.Key,
			Source:      snap.Report.Source,
			Rows:        snap.Table.Rows,
			Columns:     len(snap.Table.Columns),
			Size:        info.Size(),
			Compression: tag.String(),
			Created:     snap.Created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

// Clear drops the memory cache and removes every disk snapshot. It returns
// the number of files removed.
func (s *Store) Clear() (int, error) {
	s.mu.Lock()
	s.mem = make(map[Key]*dataset.Dataset)
	s.mu.Unlock()
	if s.dir == "" {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+fileExt))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, fmt.Errorf("remove %s: %w", filepath.Base(m), err)
		}
		n++
	}
	return n, nil
}
