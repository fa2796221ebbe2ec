package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

var languageByExt = map[string]string{
	"js": "javascript", "jsx": "javascript", "ts": "typescript", "tsx": "typescript",
	"py": "python", "java": "java", "cpp": "cpp", "c": "c", "cs": "csharp",
	"php": "php", "rb": "ruby", "go": "go", "rs": "rust", "swift": "swift",
	"kt": "kotlin", "scala": "scala", "html": "html", "css": "css",
	"scss": "scss", "json": "json", "xml": "xml", "yml": "yaml", "yaml": "yaml",
	"md": "markdown", "sh": "shell", "bash": "shell", "sql": "sql",
	"r": "r", "dart": "dart", "lua": "lua", "perl": "perl",
}

var mimeByExt = map[string]string{
	"js": "application/javascript", "ts": "application/typescript",
	"py": "text/x-python", "java": "text/x-java", "cpp": "text/x-c++src",
	"c": "text/x-csrc", "go": "text/x-go", "rs": "text/x-rust",
	"html": "text/html", "css": "text/css", "json": "application/json",
	"xml": "application/xml", "yml": "text/x-yaml", "yaml": "text/x-yaml",
	"md": "text/x-markdown", "txt": "text/plain",
}

var (
	invalidFileChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	reservedFileNames = regexp.MustCompile(`^(?i)(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`)
)

// DetectLanguage maps a filename's extension to an editor language id.
func DetectLanguage(filename string) string {
	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return "plaintext"
	}
	if lang, ok := languageByExt[strings.ToLower(parts[len(parts)-1])]; ok {
		return lang
	}
	return "plaintext"
}

// DetectMimeType maps a filename's extension to a MIME type.
func DetectMimeType(filename string) string {
	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return "text/plain"
	}
	if mime, ok := mimeByExt[strings.ToLower(parts[len(parts)-1])]; ok {
		return mime
	}
	return "text/plain"
}

// ValidFileName rejects empty, oversized, reserved and unsafe names.
func ValidFileName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if invalidFileChars.MatchString(name) || reservedFileNames.MatchString(name) {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return true
}

// FileService manages a room's durable file tree. Live clients learn of
// mutations through the socket relays; this service owns the stored truth.
type FileService struct {
	files repository.FileRepository
}

func NewFileService(files repository.FileRepository) *FileService {
	if files == nil {
		panic("FileRepository cannot be nil for FileService")
	}
	return &FileService{files: files}
}

// CreateFile validates the name, derives path/language/MIME and stores the
// new entry.
func (s *FileService) CreateFile(ctx context.Context, roomID string, name string, parentID *uint, parentPath string, isFolder bool, createdBy uint) (*domain.File, error) {
	if !ValidFileName(name) {
		return nil, ErrInvalidFileName
	}
	path := name
	if parentPath != "" {
		path = parentPath + "/" + name
	}
	file := &domain.File{
		RoomID:    roomID,
		Name:      name,
		Path:      path,
		IsFolder:  isFolder,
		ParentID:  parentID,
		CreatedBy: createdBy,
	}
	if !isFolder {
		file.Language = DetectLanguage(name)
		file.MimeType = DetectMimeType(name)
	}
	if err := s.files.Save(ctx, file); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "path": path}).
			WithError(err).Error("Failed to create file")
		return nil, ErrInternalServer
	}
	return file, nil
}

// GetFile returns a file scoped to a room; a file id belonging to another
// room is reported as not found rather than leaked.
func (s *FileService) GetFile(ctx context.Context, roomID string, fileID uint) (*domain.File, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, ErrInternalServer
	}
	if file.RoomID != roomID {
		return nil, ErrFileNotFound
	}
	return file, nil
}

// ListTree returns every file and folder in the room.
func (s *FileService) ListTree(ctx context.Context, roomID string) ([]domain.File, error) {
	files, err := s.files.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, ErrInternalServer
	}
	return files, nil
}

// SaveContent stores a file's content, last write wins. Called by the HTTP
// API and by the hub on every debounced code-change fire.
func (s *FileService) SaveContent(ctx context.Context, fileID uint, content string, modifiedBy uint) error {
	if err := s.files.SaveContent(ctx, fileID, content, modifiedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return ErrInternalServer
	}
	return nil
}

// RenameFile validates the new name and updates name and path.
func (s *FileService) RenameFile(ctx context.Context, roomID string, fileID uint, newName string) (*domain.File, error) {
	if !ValidFileName(newName) {
		return nil, ErrInvalidFileName
	}
	file, err := s.GetFile(ctx, roomID, fileID)
	if err != nil {
		return nil, err
	}
	newPath := newName
	if idx := strings.LastIndex(file.Path, "/"); idx >= 0 {
		newPath = file.Path[:idx+1] + newName
	}
	if err := s.files.Rename(ctx, fileID, newName, newPath); err != nil {
		return nil, ErrInternalServer
	}
	file.Name = newName
	file.Path = newPath
	return file, nil
}

// DeleteFile removes a file from the room's tree.
func (s *FileService) DeleteFile(ctx context.Context, roomID string, fileID uint) error {
	if _, err := s.GetFile(ctx, roomID, fileID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return ErrInternalServer
	}
	return nil
}
