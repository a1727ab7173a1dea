package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

// StorageService writes exported reports to a local directory.
type StorageService interface {
	SaveReport(report *models.AggregateReport, format ExportFormat) (string, error)
	EnsureExportDir() error
}

type storageService struct {
	exportPath string
}

func NewStorageService(exportPath string) StorageService {
	return &storageService{
		exportPath: exportPath,
	}
}

func (s *storageService) EnsureExportDir() error {
	if err := os.MkdirAll(s.exportPath, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	return nil
}

// SaveReport writes the export under a unique file name and returns its path.
func (s *storageService) SaveReport(report *models.AggregateReport, format ExportFormat) (string, error) {
	if err := s.EnsureExportDir(); err != nil {
		return "", err
	}

	id := report.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	filePath := filepath.Join(s.exportPath, fmt.Sprintf("evaluation_%s%s", id, format.Extension()))

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer dst.Close()

	if err := Export(dst, report, format); err != nil {
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	return filePath, nil
}
