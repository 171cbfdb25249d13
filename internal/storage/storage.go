package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	templatesDir = "templates"
	poolsDir     = "pools"
	exportsDir   = "exports"
	fileExt      = ".yaml"
)

// Storage handles all file system operations for templates and pools
type Storage struct {
	rootPath string
}

// NewStorage creates a new storage instance rooted at rootPath
func NewStorage(rootPath string) (*Storage, error) {
	if rootPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootPath = filepath.Join(homeDir, ".pocket-compose")
	}
	return &Storage{rootPath: rootPath}, nil
}

// InitLibrary creates the directory structure for a template library
func (s *Storage) InitLibrary() error {
	dirs := []string{
		s.rootPath,
		filepath.Join(s.rootPath, templatesDir),
		filepath.Join(s.rootPath, poolsDir),
		filepath.Join(s.rootPath, exportsDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.StorageError(fmt.Sprintf("create directory %s", dir), err)
		}
	}

	return nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// ExportPath returns where an export file with the given name is written
func (s *Storage) ExportPath(name string) string {
	return filepath.Join(s.rootPath, exportsDir, name)
}

// LoadTemplate loads the template with the given id from templates/<id>.yaml
func (s *Storage) LoadTemplate(id string) (*models.Template, error) {
	rel := filepath.Join(templatesDir, id+fileExt)
	var tmpl models.Template
	if err := s.readYAML(rel, "Template '"+id+"'", &tmpl); err != nil {
		return nil, err
	}

	if tmpl.ID == "" {
		tmpl.ID = id
	}
	tmpl.FilePath = rel
	if err := ValidateTemplate(&tmpl); err != nil {
		return nil, apperrors.TemplateError(id, err)
	}
	return &tmpl, nil
}

// SaveTemplate writes a template to templates/<id>.yaml
func (s *Storage) SaveTemplate(tmpl *models.Template) error {
	if err := ValidateTemplate(tmpl); err != nil {
		return apperrors.TemplateError(tmpl.ID, err)
	}
	if tmpl.FilePath == "" {
		tmpl.FilePath = filepath.Join(templatesDir, tmpl.ID+fileExt)
	}
	return s.writeYAML(tmpl.FilePath, tmpl)
}

// DeleteTemplate deletes a template file
func (s *Storage) DeleteTemplate(id string) error {
	fullPath := filepath.Join(s.rootPath, templatesDir, id+fileExt)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NotFoundError("Template '" + id + "'")
		}
		return apperrors.StorageError("delete template", err)
	}
	return nil
}

// ListTemplates returns all templates in the library, sorted by id
func (s *Storage) ListTemplates() ([]*models.Template, error) {
	ids, err := s.listIDs(templatesDir)
	if err != nil {
		return nil, err
	}

	var templates []*models.Template
	for _, id := range ids {
		tmpl, err := s.LoadTemplate(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load template %s: %v\n", id, err)
			continue
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// LoadPool loads pools/<id>.yaml. It satisfies the service's pool loader
// contract; ctx is checked before touching the disk.
func (s *Storage) LoadPool(ctx context.Context, id models.PoolID) (*models.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := s.poolPath(id)
	var pool models.Pool
	if err := s.readYAML(rel, "Pool '"+string(id)+"'", &pool); err != nil {
		return nil, err
	}
	if pool.ID == "" {
		pool.ID = id
	}
	pool.FilePath = rel
	return &pool, nil
}

// SavePool writes a pool to pools/<id>.yaml
func (s *Storage) SavePool(pool *models.Pool) error {
	if pool.ID == "" {
		return apperrors.ValidationError("pool id is required")
	}
	if pool.FilePath == "" {
		pool.FilePath = s.poolPath(pool.ID)
	}
	return s.writeYAML(pool.FilePath, pool)
}

// ListPools returns the ids of every pool on disk
func (s *Storage) ListPools() ([]models.PoolID, error) {
	ids, err := s.listIDs(poolsDir)
	if err != nil {
		return nil, err
	}
	pools := make([]models.PoolID, len(ids))
	for i, id := range ids {
		pools[i] = models.PoolID(id)
	}
	return pools, nil
}

// poolModTime is used by PoolCache to detect edits on disk
func (s *Storage) poolModTime(id models.PoolID) (int64, bool) {
	info, err := os.Stat(filepath.Join(s.rootPath, s.poolPath(id)))
	if err != nil {
		return 0, false
	}
	return info.ModTime().UnixNano(), true
}

func (s *Storage) poolPath(id models.PoolID) string {
	return filepath.Join(poolsDir, string(id)+fileExt)
}

func (s *Storage) listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.rootPath, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.StorageError("list "+dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Storage) readYAML(rel, resource string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.rootPath, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NotFoundError(resource)
		}
		return apperrors.StorageError("read "+rel, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFileCorrupted, fmt.Sprintf("failed to parse %s", rel))
	}
	return nil
}

func (s *Storage) writeYAML(rel string, v interface{}) error {
	fullPath := filepath.Join(s.rootPath, rel)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.StorageError("create directory", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode "+rel)
	}
	if err := encoder.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode "+rel)
	}

	if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return apperrors.StorageError("write "+rel, err)
	}
	return nil
}

// ValidateTemplate checks the structural rules the engine relies on: an id,
// non-empty wildcard value lists and unique local wildcard names
func ValidateTemplate(tmpl *models.Template) error {
	if tmpl.ID == "" {
		return fmt.Errorf("template id is required")
	}
	seen := make(map[string]bool)
	for _, w := range tmpl.Wildcards {
		if w.Name == "" {
			return fmt.Errorf("wildcard without a name")
		}
		if seen[w.Name] {
			return fmt.Errorf("wildcard %q defined twice", w.Name)
		}
		seen[w.Name] = true
		if len(w.Values) == 0 {
			return fmt.Errorf("wildcard %q has no values", w.Name)
		}
	}
	return nil
}
