package tts

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MappingFile lists which cached file holds which sentence.
const MappingFile = "audio_mapping.json"

// FileName is the cache file name of a sentence.
func FileName(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:12] + ".mp3"
}

// Cache stores pre-generated MP3 files in a directory.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) path(text string) string {
	return filepath.Join(c.dir, FileName(text))
}

func (c *Cache) Has(text string) bool {
	_, err := os.Stat(c.path(text))
	return err == nil
}

// Get returns the cached audio for text, if any.
func (c *Cache) Get(text string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(text))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores audio for text.
func (c *Cache) Put(text string, audio []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".audio-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(text))
}

// WriteMapping writes the sentence to file name index.
func (c *Cache) WriteMapping(sentences []string) error {
	mapping := make(map[string]string, len(sentences))
	for _, s := range sentences {
		mapping[s] = FileName(s)
	}

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, MappingFile), data, 0o644)
}
