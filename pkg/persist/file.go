package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultFilePerm = 0o644

// SaveFile encodes state with codec and atomically replaces path.
func SaveFile(path string, codec Codec, state any) error {
	tmp, err := createTemp(path)
	if err != nil {
		return err
	}

	encodeErr := codec.Encode(tmp, state)
	if encodeErr != nil {
		return errors.Join(fmt.Errorf("encode state: %w", encodeErr), discardTemp(tmp))
	}

	return commitTemp(tmp, path, defaultFilePerm)
}

// LoadFile decodes the file at path into state, which must be a pointer.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

// WriteFileAtomic replaces path with data via a temporary file in the same
// directory and a rename. An existing file keeps its permission bits. A
// symlinked path is resolved first so the link keeps pointing at the target.
func WriteFileAtomic(path string, data []byte) error {
	perm := fs.FileMode(defaultFilePerm)

	resolved, resolveErr := filepath.EvalSymlinks(path)
	if resolveErr == nil {
		path = resolved
	}

	info, statErr := os.Stat(path)
	if statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := createTemp(path)
	if err != nil {
		return err
	}

	_, writeErr := tmp.Write(data)
	if writeErr != nil {
		return errors.Join(fmt.Errorf("write %s: %w", tmp.Name(), writeErr), discardTemp(tmp))
	}

	return commitTemp(tmp, path, perm)
}

func createTemp(path string) (*os.File, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return tmp, nil
}

func discardTemp(tmp *os.File) error {
	closeErr := tmp.Close()
	removeErr := os.Remove(tmp.Name())

	return errors.Join(closeErr, removeErr)
}

func commitTemp(tmp *os.File, path string, perm fs.FileMode) error {
	syncErr := tmp.Sync()
	if syncErr != nil {
		return errors.Join(fmt.Errorf("sync %s: %w", tmp.Name(), syncErr), discardTemp(tmp))
	}

	closeErr := tmp.Close()
	if closeErr != nil {
		return errors.Join(fmt.Errorf("close %s: %w", tmp.Name(), closeErr), os.Remove(tmp.Name()))
	}

	chmodErr := os.Chmod(tmp.Name(), perm)
	if chmodErr != nil {
		return errors.Join(fmt.Errorf("chmod %s: %w", tmp.Name(), chmodErr), os.Remove(tmp.Name()))
	}

	renameErr := os.Rename(tmp.Name(), path)
	if renameErr != nil {
		return errors.Join(fmt.Errorf("replace %s: %w", path, renameErr), os.Remove(tmp.Name()))
	}

	return nil
}
