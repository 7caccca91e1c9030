package docmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// StaticAsset is a file referenced by a page (an image, a literal-include
// source). Identity is the FileId alone: two assets with the same id are the
// same asset regardless of load state, which is what makes set-difference
// watch bookkeeping work. Content and checksum are loaded lazily and cached
// on the instance.
type StaticAsset struct {
	FileId FileId
	Path   string // absolute filesystem path
	Upload bool

	data     []byte
	checksum string
}

// LoadAsset creates an unloaded asset handle. No filesystem access happens
// until Data or Checksum is called.
func LoadAsset(id FileId, path string, upload bool) *StaticAsset {
	return &StaticAsset{FileId: id, Path: path, Upload: upload}
}

// Data returns the asset's contents, reading them on first access.
func (a *StaticAsset) Data() ([]byte, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	return a.data, nil
}

// Checksum returns the hex 256-bit digest of the asset's contents, computed
// on first access.
func (a *StaticAsset) Checksum() (string, error) {
	if err := a.load(); err != nil {
		return "", err
	}
	return a.checksum, nil
}

// CanUpload reports whether the asset exists on disk and is of a kind that
// should be uploaded.
func (a *StaticAsset) CanUpload() bool {
	if err := a.load(); err != nil {
		return false
	}
	return a.Upload
}

func (a *StaticAsset) load() error {
	if a.data != nil {
		return nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	a.data = data
	a.checksum = hex.EncodeToString(sum[:])
	return nil
}

// AssetSet is a set of static assets keyed by identity.
type AssetSet map[FileId]*StaticAsset

// Add inserts an asset, keeping an existing instance with the same id.
func (s AssetSet) Add(a *StaticAsset) {
	if _, ok := s[a.FileId]; !ok {
		s[a.FileId] = a
	}
}

// Union inserts every asset of other into s.
func (s AssetSet) Union(other AssetSet) {
	for _, a := range other {
		s.Add(a)
	}
}

// Difference returns the assets of s whose ids are absent from other.
func (s AssetSet) Difference(other AssetSet) []*StaticAsset {
	var out []*StaticAsset
	for id, a := range s {
		if _, ok := other[id]; !ok {
			out = append(out, a)
		}
	}
	return out
}
