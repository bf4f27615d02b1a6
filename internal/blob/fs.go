package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FilesystemStore maps keys to files under a root directory. A sidecar file
// (key + ".meta") holds content type and user metadata. Not safe for
// concurrent writers beyond per-file creation.
type FilesystemStore struct {
	root string
}

// NewFilesystem returns a filesystem store rooted at path, creating it if
// needed.
func NewFilesystem(root string) (*FilesystemStore, error) {
	if root == "" {
		root = "./archivedata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) Driver() Driver { return DriverFilesystem }

// sanitizeKey forbids traversal and absolute paths so keys stay under root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *FilesystemStore) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, k)
	metaPath = dataPath + ".meta"
	return
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Info{}, err
	}
	// Stream to a temp file first so the digest and size are known before
	// the object becomes visible.
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	h := sha256.New()
	size, copyErr := io.Copy(io.MultiWriter(tmp, h), r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return Info{}, copyErr
	}
	if closeErr != nil {
		return Info{}, closeErr
	}
	etag := hex.EncodeToString(h.Sum(nil))
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return Info{}, err
	}
	now := time.Now().UTC()
	mf := metaFile{ContentType: opts.ContentType, Metadata: cloneMetadata(opts.Metadata), ETag: etag, Size: size, CreatedAt: now}
	if err := writeMeta(metaPath, mf); err != nil {
		return Info{}, err
	}
	return s.infoFor(key, mf), nil
}

func (s *FilesystemStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if err != nil {
		return Info{}, nil, err
	}
	mf, err := readMeta(metaPath)
	if err != nil {
		_ = file.Close()
		return Info{}, nil, err
	}
	return s.infoFor(key, mf), file, nil
}

func (s *FilesystemStore) Head(ctx context.Context, key string) (Info, error) {
	_, metaPath, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	mf, err := readMeta(metaPath)
	if err != nil {
		return Info{}, err
	}
	return s.infoFor(key, mf), nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".meta") {
			return nil
		}
		mf, err := readMeta(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, ".meta"))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			infos = append(infos, s.infoFor(key, mf))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *FilesystemStore) PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", ErrUnsupported
	}
	return s.localURL(key), nil
}

func (s *FilesystemStore) infoFor(key string, mf metaFile) Info {
	return Info{
		Key:          key,
		Size:         mf.Size,
		ContentType:  mf.ContentType,
		ETag:         mf.ETag,
		Metadata:     cloneMetadata(mf.Metadata),
		LastModified: mf.CreatedAt,
		URL:          s.localURL(key),
	}
}

// localURL is a stable opaque development URL; no auth.
func (s *FilesystemStore) localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func writeMeta(path string, mf metaFile) error {
	b, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, err
	}
	return mf, nil
}
