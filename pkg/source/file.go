package source

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// MetaFilename is the recording metadata file inside a recording directory.
const MetaFilename = "meta.json"

// framePattern names frame files inside a recording directory.
const framePattern = "frame-%04d.json"

// DirSource reads a recording from a directory laid out as:
//
//	meta.json
//	frame-0000.json
//	frame-0001.json
//	...
//
// If meta.json is missing, metadata is derived by counting frame files.
type DirSource struct {
	dir string
}

// NewDirSource opens a recording directory.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecordingNotFound, err, "open recording %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeRecordingNotFound, "%s is not a directory", dir)
	}
	return &DirSource{dir: dir}, nil
}

// Meta returns the recording metadata.
func (s *DirSource) Meta(context.Context) (snapshot.RecordingMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, MetaFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return s.countFrames()
		}
		return snapshot.RecordingMeta{}, fmt.Errorf("read %s: %w", MetaFilename, err)
	}
	var meta snapshot.RecordingMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return snapshot.RecordingMeta{}, fmt.Errorf("parse %s: %w", MetaFilename, err)
	}
	return meta, nil
}

// Frame reads one raw frame by index.
func (s *DirSource) Frame(_ context.Context, index int) (snapshot.RawFrame, error) {
	if index < 0 {
		return snapshot.RawFrame{}, errors.New(errors.ErrCodeInvalidFrame, "frame index cannot be negative: %d", index)
	}
	path := filepath.Join(s.dir, fmt.Sprintf(framePattern, index))
	f, err := snapshot.ReadRawFrameFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return snapshot.RawFrame{}, errors.Wrap(errors.ErrCodeFrameNotFound, err, "frame %d", index)
		}
		return snapshot.RawFrame{}, err
	}
	return f, nil
}

// WriteFrame stores one raw frame under the directory's naming scheme.
// Recorders use this; readers only need Meta and Frame.
func (s *DirSource) WriteFrame(f snapshot.RawFrame) error {
	path := filepath.Join(s.dir, fmt.Sprintf(framePattern, f.Index))
	return snapshot.WriteRawFrameFile(f, path)
}

// WriteMeta stores recording metadata.
func (s *DirSource) WriteMeta(meta snapshot.RecordingMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, MetaFilename), data, 0o644)
}

// countFrames derives metadata when meta.json is absent by counting
// consecutive frame files from index 0.
func (s *DirSource) countFrames() (snapshot.RecordingMeta, error) {
	count := 0
	for {
		path := filepath.Join(s.dir, fmt.Sprintf(framePattern, count))
		if _, err := os.Stat(path); err != nil {
			break
		}
		count++
	}
	if count == 0 {
		return snapshot.RecordingMeta{}, errors.New(errors.ErrCodeRecordingNotFound, "no frames in %s", s.dir)
	}
	return snapshot.RecordingMeta{FrameCount: count}, nil
}
