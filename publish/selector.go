package publish

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bmatcuk/doublestar/v4"
)

const fileScheme = "file://"

// sniffLen is the amount of content http.DetectContentType looks at.
const sniffLen = 512

// FileSelector turns user input into files ready to be uploaded.
type FileSelector interface {
	Select(paths []string) ([]SelectedFile, error)
}

type fileSelector struct {
	logger       log.Logger
	pathModifier pathutil.PathModifier
	pathChecker  pathutil.PathChecker
}

// NewFileSelector ...
func NewFileSelector(logger log.Logger, pathModifier pathutil.PathModifier, pathChecker pathutil.PathChecker) FileSelector {
	return fileSelector{
		logger:       logger,
		pathModifier: pathModifier,
		pathChecker:  pathChecker,
	}
}

// Select accepts plain paths, file:// paths and doublestar patterns (docs/**/*.pdf).
// Missing paths and directories are skipped with a warning, it is an error if nothing is left.
func (s fileSelector) Select(paths []string) ([]SelectedFile, error) {
	expandedPaths, err := s.expand(paths)
	if err != nil {
		return nil, err
	}

	var files []SelectedFile
	seen := map[string]bool{}
	for _, path := range expandedPaths {
		absPath, err := s.pathModifier.AbsPath(path)
		if err != nil {
			s.logger.Warnf("Failed to parse path %s, error: %s", path, err)
			continue
		}
		if seen[absPath] {
			continue
		}
		seen[absPath] = true

		exists, err := s.pathChecker.IsPathExists(absPath)
		if err != nil {
			s.logger.Warnf("Failed to check path %s, error: %s", absPath, err)
		}
		if !exists {
			s.logger.Warnf("File doesn't exist: %s", path)
			continue
		}

		file, err := s.selectFile(absPath)
		if err != nil {
			s.logger.Warnf("Skipping %s: %s", path, err)
			continue
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no file selected from: %s", strings.Join(paths, ", "))
	}

	return files, nil
}

func (s fileSelector) expand(paths []string) ([]string, error) {
	var expandedPaths []string
	for _, path := range paths {
		path = strings.TrimPrefix(strings.TrimSpace(path), fileScheme)
		if path == "" {
			continue
		}
		if !strings.ContainsAny(path, "*?[{") {
			expandedPaths = append(expandedPaths, path)
			continue
		}

		base, pattern := doublestar.SplitPattern(filepath.ToSlash(path))
		absBase, err := s.pathModifier.AbsPath(base)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern base %s: %w", base, err)
		}
		matches, err := doublestar.Glob(os.DirFS(absBase), pattern, doublestar.WithNoFollow())
		if err != nil {
			s.logger.Warnf("Error in path pattern '%s': %s", path, err)
			continue
		}
		if len(matches) == 0 {
			s.logger.Warnf("No match for path pattern: %s", path)
			continue
		}

		sort.Strings(matches)
		for _, match := range matches {
			expandedPaths = append(expandedPaths, filepath.Join(absBase, filepath.FromSlash(match)))
		}
	}
	return expandedPaths, nil
}

func (s fileSelector) selectFile(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, err
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("is a directory")
	}

	contentType, err := detectContentType(path)
	if err != nil {
		return SelectedFile{}, err
	}

	return newSelectedLocalFile(filepath.Base(path), contentType, path, info.Size()), nil
}

// detectContentType prefers the extension, the way browsers fill File.type, and sniffs the content otherwise.
func detectContentType(path string) (string, error) {
	if contentType := mime.TypeByExtension(filepath.Ext(path)); contentType != "" {
		return contentType, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	return http.DetectContentType(head[:n]), nil
}
