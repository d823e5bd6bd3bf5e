package services

import "context"

type LogWriter interface {
	CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error
}

type AltTextGenerator interface {
	Generate(ctx context.Context, imagePath string, contextText string, eventID *string) (AltTextResult, error)
}

type ImageExtractor interface {
	ExtractImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error)
}

type AltTextTagger interface {
	WriteAltTexts(ctx context.Context, inputPath string, outputPath string, altTexts map[int]string) error
}

type UploadStore interface {
	SaveUpload(userID uint, filename string, data []byte) (string, error)
	ProjectResultsDir(userID uint, projectID uint) (string, error)
	RemoveProject(userID uint, projectID uint, originalPath string) error
	RemoveUserData(userID uint) error
}
