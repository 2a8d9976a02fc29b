// Package vault resolves image paths found in messages to data URIs.
package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/elee1766/lenschat/src/aisdk"
)

// DefaultMaxImageSize bounds the size of an image read from the vault.
const DefaultMaxImageSize = 20 << 20

var (
	// ErrNotFound indicates the path does not exist in the vault
	ErrNotFound = errors.New("image not found")

	// ErrNotImage indicates the file content is not an image
	ErrNotImage = errors.New("file is not an image")

	// ErrTooLarge indicates the file exceeds the size limit
	ErrTooLarge = errors.New("image too large")
)

// Loader reads images relative to a vault root.
type Loader struct {
	fs      afero.Fs
	root    string
	maxSize int64
	logger  *slog.Logger
}

var _ aisdk.ImageLoader = (*Loader)(nil)

// New creates a loader over fs. Relative paths resolve against root.
func New(fs afero.Fs, root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fs:      fs,
		root:    root,
		maxSize: DefaultMaxImageSize,
		logger:  logger.With("component", "vault"),
	}
}

// NewOS creates a loader over the operating system filesystem.
func NewOS(root string, logger *slog.Logger) *Loader {
	return New(afero.NewOsFs(), root, logger)
}

// SetMaxSize changes the size limit.
func (l *Loader) SetMaxSize(n int64) {
	l.maxSize = n
}

// LoadImageAsDataURI reads the image at path and returns it as a base64 data URI.
func (l *Loader) LoadImageAsDataURI(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	resolved, err := l.resolvePath(path)
	if err != nil {
		return "", err
	}

	info, err := l.fs.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotImage, path)
	}
	if info.Size() > l.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	data, err := afero.ReadFile(l.fs, resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	mtype := mimetype.Detect(data)
	mediaType := strings.SplitN(mtype.String(), ";", 2)[0]
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, path, mediaType)
	}

	l.logger.Debug("image loaded", "path", resolved, "media_type", mediaType, "bytes", len(data))
	return aisdk.FormatDataURI(mediaType, base64.StdEncoding.EncodeToString(data)), nil
}

// PathRef encodes a filesystem path as a markdown link target that
// LoadImageAsDataURI resolves back to the same file.
func PathRef(path string) string {
	return (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
}

// resolvePath turns a markdown link target into a filesystem path. Targets may
// be percent-encoded or wrapped in angle brackets.
func (l *Loader) resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimSuffix(strings.TrimPrefix(path, "<"), ">")
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	if filepath.IsAbs(path) || l.root == "" {
		return filepath.Clean(path), nil
	}
	return filepath.Join(l.root, path), nil
}
