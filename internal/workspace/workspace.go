package workspace

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/models"
)

// Workspace is a per-request scratch directory the CLI runs in.
type Workspace struct {
	ID  string // directory base name, surfaced as workspace_id
	Dir string
}

// Manager creates, scans and removes request workspaces.
type Manager struct {
	baseDir     string
	maxFileSize int64
	log         *logrus.Logger
}

func NewManager(maxFileSize int64, log *logrus.Logger) *Manager {
	return &Manager{
		baseDir:     os.TempDir(),
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Create makes a fresh workspace directory under the base temp dir.
func (m *Manager) Create() (*Workspace, error) {
	name := "copilot_workspace_" + uuid.New().String()[:8]
	dir := filepath.Join(m.baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace %s: %w", dir, err)
	}
	m.log.WithField("workspace", dir).Info("Created temp workspace")
	return &Workspace{ID: name, Dir: dir}, nil
}

// Remove deletes a workspace. Failures are logged, never fatal: the
// response has already been produced by the time cleanup runs.
func (m *Manager) Remove(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		m.log.WithError(err).WithField("workspace", dir).Warn("Failed to cleanup workspace")
		return
	}
	m.log.WithField("workspace", dir).Info("Cleaned up workspace")
}

// Directories pruned during collection.
var ignoredDirs = map[string]struct{}{
	".venv": {}, "venv": {}, "env": {}, ".env": {},
	"__pycache__": {}, ".pytest_cache": {}, ".mypy_cache": {}, ".ruff_cache": {},
	"node_modules": {}, ".npm": {},
	".git": {}, ".svn": {}, ".hg": {},
	".idea": {}, ".vscode": {}, ".vs": {},
	"dist": {}, "build": {}, "target": {}, "out": {},
	".tox": {}, ".nox": {}, "htmlcov": {}, ".coverage": {},
	"egg-info": {}, ".eggs": {},
}

// Extensions skipped during collection (compared lowercased).
var ignoredExtensions = map[string]struct{}{
	".pyc": {}, ".pyo": {}, ".pyd": {},
	".so": {}, ".dll": {}, ".dylib": {},
	".exe": {}, ".bin": {},
	".log": {}, ".tmp": {}, ".temp": {},
	".ds_store": {}, ".gitignore": {}, ".gitattributes": {},
}

// File names skipped during collection.
var ignoredFiles = map[string]struct{}{
	".DS_Store": {}, "Thumbs.db": {}, "desktop.ini": {},
	".env": {}, ".env.local": {}, ".env.development": {},
}

var mimeByExtension = map[string]string{
	".py":         "text/x-python",
	".js":         "text/javascript",
	".ts":         "text/typescript",
	".jsx":        "text/jsx",
	".tsx":        "text/tsx",
	".json":       "application/json",
	".html":       "text/html",
	".css":        "text/css",
	".md":         "text/markdown",
	".txt":        "text/plain",
	".yaml":       "text/yaml",
	".yml":        "text/yaml",
	".xml":        "application/xml",
	".sh":         "text/x-shellscript",
	".bash":       "text/x-shellscript",
	".ps1":        "text/x-powershell",
	".java":       "text/x-java",
	".c":          "text/x-c",
	".cpp":        "text/x-c++",
	".h":          "text/x-c",
	".cs":         "text/x-csharp",
	".go":         "text/x-go",
	".rs":         "text/x-rust",
	".rb":         "text/x-ruby",
	".php":        "text/x-php",
	".sql":        "text/x-sql",
	".dockerfile": "text/x-dockerfile",
	".gitignore":  "text/plain",
	".env":        "text/plain",
}

// Collect walks a workspace and returns every file the CLI produced,
// base64-encoded, skipping caches, VCS internals and other artifacts.
// Files are returned sorted by relative path.
func (m *Manager) Collect(root string) ([]models.WorkspaceFile, error) {
	var files []models.WorkspaceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			m.log.WithError(walkErr).WithField("path", path).Warn("Failed to read workspace entry")
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := ignoredDirs[d.Name()]; skip {
				return fs.SkipDir
			}
			return nil
		}

		name := d.Name()
		ext := fileExt(name)
		if _, skip := ignoredExtensions[ext]; skip {
			return nil
		}
		if _, skip := ignoredFiles[name]; skip {
			return nil
		}
		if strings.HasPrefix(name, ".") && name != ".gitignore" && name != ".dockerignore" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			m.log.WithError(err).WithField("path", path).Warn("Failed to stat file")
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.Size() > m.maxFileSize {
			m.log.WithFields(logrus.Fields{"path": rel, "size": info.Size()}).Warn("Skipping large file")
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			m.log.WithError(err).WithField("path", rel).Warn("Failed to read file")
			return nil
		}

		file := models.WorkspaceFile{
			Path:          rel,
			Name:          name,
			Extension:     ext,
			Size:          info.Size(),
			MimeType:      detectMimeType(ext, content),
			ContentBase64: base64.StdEncoding.EncodeToString(content),
		}
		if utf8.Valid(content) {
			text := string(content)
			file.ContentText = &text
		} else {
			file.IsBinary = true
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// fileExt returns the lowercased extension, treating dotfiles such as
// ".gitignore" as having none.
func fileExt(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return strings.ToLower(ext)
}

func detectMimeType(ext string, content []byte) string {
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	if mt := mimetype.Detect(content); mt != nil {
		return mt.String()
	}
	return "application/octet-stream"
}
