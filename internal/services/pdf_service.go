package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	// Images below this size in either dimension are treated as spacers
	// and skipped.
	minImageDimension = 20

	maxContextChars = 500

	noContextFallback = "Kein Textkontext verfuegbar."
)

type ExtractedImage struct {
	PageNumber  int
	ImageIndex  int
	Path        string
	Filename    string
	Width       int
	Height      int
	XRef        int
	ContextText string
	Ext         string
}

// PdfService extracts embedded images from PDFs and writes alt-texts back
// into the image objects.
type PdfService struct{}

func NewPdfService() (*PdfService, error) {
	return &PdfService{}, nil
}

func (s *PdfService) ExtractImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error) {
	if s == nil {
		return nil, errors.New("pdf service is nil")
	}
	if pdfPath == "" {
		return nil, errors.New("pdf path is empty")
	}
	if outDir == "" {
		return nil, errors.New("output dir is empty")
	}
	_ = ctx

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pageImages, err := pdfapi.ExtractImagesRaw(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	texts := pageTexts(pdfPath)

	var extracted []ExtractedImage
	for _, imagesByObj := range pageImages {
		objNrs := make([]int, 0, len(imagesByObj))
		for objNr := range imagesByObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		index := 0
		for _, objNr := range objNrs {
			img := imagesByObj[objNr]

			data, err := io.ReadAll(img)
			if err != nil {
				continue
			}

			width, height := imageDimensions(data)
			if skipAsSpacer(width, height) {
				continue
			}

			index++
			ext := img.FileType
			if ext == "" {
				ext = "png"
			}

			filename := imageFilename(img.PageNr, index, ext)
			path := filepath.Join(outDir, filename)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("write image %s: %w", filename, err)
			}

			extracted = append(extracted, ExtractedImage{
				PageNumber:  img.PageNr,
				ImageIndex:  index,
				Path:        path,
				Filename:    filename,
				Width:       width,
				Height:      height,
				XRef:        objNr,
				ContextText: contextText(texts[img.PageNr]),
				Ext:         ext,
			})
		}
	}

	return extracted, nil
}

// WriteAltTexts rewrites the /Alt entry of every image object listed in
// altTexts (keyed by object number) and saves the document to outputPath.
func (s *PdfService) WriteAltTexts(ctx context.Context, inputPath string, outputPath string, altTexts map[int]string) error {
	if s == nil {
		return errors.New("pdf service is nil")
	}
	if inputPath == "" {
		return errors.New("input path is empty")
	}
	if outputPath == "" {
		return errors.New("output path is empty")
	}
	_ = ctx

	pdfCtx, err := pdfapi.ReadContextFile(inputPath)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	for objNr, alt := range altTexts {
		entry, ok := pdfCtx.XRefTable.Table[objNr]
		if !ok || entry == nil || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		sd.Dict["Alt"] = types.StringLiteral(alt)
		entry.Object = sd
	}

	if err := pdfapi.WriteContextFile(pdfCtx, outputPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

// pageTexts returns the plain text per page number. Text extraction failures
// degrade to missing context, never to a failed upload.
func pageTexts(pdfPath string) map[int]string {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	texts := make(map[int]string)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i] = text
	}

	return texts
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func skipAsSpacer(width int, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	return width < minImageDimension || height < minImageDimension
}

func imageFilename(pageNumber int, imageIndex int, ext string) string {
	return fmt.Sprintf("p%d_img%d.%s", pageNumber, imageIndex, ext)
}

func contextText(pageText string) string {
	if pageText == "" {
		return noContextFallback
	}
	runes := []rune(pageText)
	if len(runes) > maxContextChars {
		return string(runes[:maxContextChars])
	}
	return pageText
}
