package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/gorm"
)

func newTestProjectService(t *testing.T, db *gorm.DB, extractor *stubExtractor) (*ProjectService, *stubLogWriter) {
	t.Helper()

	logs := &stubLogWriter{}
	store := &stubUploadStore{savedPath: "/tmp/upload.pdf", resultsDir: t.TempDir()}
	service, err := NewProjectService(db, store, extractor, logs)
	if err != nil {
		t.Fatalf("NewProjectService: %v", err)
	}

	return service, logs
}

func TestNewProjectServiceNilArgs(t *testing.T) {
	db := openTestDB(t)
	store := &stubUploadStore{}
	extractor := &stubExtractor{}
	logs := &stubLogWriter{}

	if _, err := NewProjectService(nil, store, extractor, logs); err == nil {
		t.Fatalf("nil db: expected error")
	}
	if _, err := NewProjectService(db, nil, extractor, logs); err == nil {
		t.Fatalf("nil store: expected error")
	}
	if _, err := NewProjectService(db, store, nil, logs); err == nil {
		t.Fatalf("nil extractor: expected error")
	}
	if _, err := NewProjectService(db, store, extractor, nil); err == nil {
		t.Fatalf("nil log service: expected error")
	}
}

func TestProjectServiceCreateFromUpload(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")

	extractor := &stubExtractor{images: []ExtractedImage{
		{PageNumber: 1, ImageIndex: 1, Path: "/tmp/p1_img1.png", Width: 100, Height: 80, XRef: 12, ContextText: "Seite 1"},
		{PageNumber: 2, ImageIndex: 1, Path: "/tmp/p2_img1.png", Width: 200, Height: 160, XRef: 17, ContextText: "Seite 2"},
	}}
	service, logs := newTestProjectService(t, db, extractor)

	project, err := service.CreateFromUpload(context.Background(), user.ID, "bericht.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateFromUpload: %v", err)
	}

	if project.Status != models.ProjectStatusExtracted {
		t.Fatalf("Status = %q, want %q", project.Status, models.ProjectStatusExtracted)
	}
	if project.TotalImages != 2 {
		t.Fatalf("TotalImages = %d, want 2", project.TotalImages)
	}

	var images []models.Image
	if err := db.Where("project_id = ?", project.ID).Order("page_number, image_index").Find(&images).Error; err != nil {
		t.Fatalf("select images: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("images length = %d, want 2", len(images))
	}
	if images[0].XRef != 12 {
		t.Fatalf("XRef = %d, want 12", images[0].XRef)
	}
	if images[0].Status != models.ImageStatusPending {
		t.Fatalf("image status = %q, want %q", images[0].Status, models.ImageStatusPending)
	}
	if images[0].ContextText != "Seite 1" {
		t.Fatalf("ContextText = %q, want %q", images[0].ContextText, "Seite 1")
	}

	if len(logs.entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(logs.entries))
	}
	if logs.entries[0].action != LogActionUpload {
		t.Fatalf("first log action = %q, want %q", logs.entries[0].action, LogActionUpload)
	}
	if logs.entries[1].action != LogActionExtract {
		t.Fatalf("second log action = %q, want %q", logs.entries[1].action, LogActionExtract)
	}
}

func TestProjectServiceCreateFromUploadRejectsNonPDF(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	if _, err := service.CreateFromUpload(context.Background(), user.ID, "bericht.docx", []byte("x")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("non-pdf: err = %v, want ErrNotPDF", err)
	}
}

func TestProjectServiceCreateFromUploadRejectsOversized(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	data := make([]byte, MaxUploadSize+1)
	if _, err := service.CreateFromUpload(context.Background(), user.ID, "gross.pdf", data); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversized: err = %v, want ErrFileTooLarge", err)
	}
}

func TestProjectServiceCreateFromUploadExtractionFails(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, logs := newTestProjectService(t, db, &stubExtractor{err: errors.New("broken pdf")})

	_, err := service.CreateFromUpload(context.Background(), user.ID, "kaputt.pdf", []byte("%PDF-1.4"))
	if !errors.Is(err, ErrExtractFailed) {
		t.Fatalf("broken pdf: err = %v, want ErrExtractFailed", err)
	}

	var project models.Project
	if err := db.Where("user_id = ?", user.ID).First(&project).Error; err != nil {
		t.Fatalf("select project: %v", err)
	}
	if project.Status != models.ProjectStatusError {
		t.Fatalf("Status = %q, want %q", project.Status, models.ProjectStatusError)
	}

	last := logs.entries[len(logs.entries)-1]
	if last.action != LogActionExtract || last.outcome != LogOutcomeFail {
		t.Fatalf("last log = %s/%s, want %s/%s", last.action, last.outcome, LogActionExtract, LogOutcomeFail)
	}
}

func TestProjectServiceListOrdersNewestFirst(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	other := createTestUser(t, db, "ben@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	projects := []models.Project{
		{UserID: user.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone},
		{UserID: other.ID, Filename: "b.pdf", OriginalPath: "/tmp/b.pdf", Status: models.ProjectStatusDone},
	}
	if err := db.Create(&projects).Error; err != nil {
		t.Fatalf("insert projects: %v", err)
	}

	listed, err := service.List(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("projects length = %d, want 1", len(listed))
	}
	if listed[0].Filename != "a.pdf" {
		t.Fatalf("Filename = %q, want %q", listed[0].Filename, "a.pdf")
	}
}

func TestProjectServiceGetEnforcesOwnership(t *testing.T) {
	db := openTestDB(t)
	owner := createTestUser(t, db, "anna@example.com")
	stranger := createTestUser(t, db, "ben@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project := models.Project{UserID: owner.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("insert project: %v", err)
	}

	if _, _, err := service.Get(context.Background(), owner.ID, project.ID); err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	if _, _, err := service.Get(context.Background(), stranger.ID, project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("Get as stranger: err = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectServiceGetOrdersImages(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project := models.Project{UserID: user.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("insert project: %v", err)
	}

	images := []models.Image{
		{ProjectID: project.ID, PageNumber: 2, ImageIndex: 1, ImagePath: "/tmp/p2_img1.png", Status: models.ImageStatusDone},
		{ProjectID: project.ID, PageNumber: 1, ImageIndex: 2, ImagePath: "/tmp/p1_img2.png", Status: models.ImageStatusDone},
		{ProjectID: project.ID, PageNumber: 1, ImageIndex: 1, ImagePath: "/tmp/p1_img1.png", Status: models.ImageStatusDone},
	}
	if err := db.Create(&images).Error; err != nil {
		t.Fatalf("insert images: %v", err)
	}

	_, loaded, err := service.Get(context.Background(), user.ID, project.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("images length = %d, want 3", len(loaded))
	}
	if loaded[0].PageNumber != 1 || loaded[0].ImageIndex != 1 {
		t.Fatalf("first image = p%d_img%d, want p1_img1", loaded[0].PageNumber, loaded[0].ImageIndex)
	}
	if loaded[2].PageNumber != 2 {
		t.Fatalf("last image page = %d, want 2", loaded[2].PageNumber)
	}
}

func TestProjectServiceDelete(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project := models.Project{UserID: user.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("insert project: %v", err)
	}
	image := models.Image{ProjectID: project.ID, PageNumber: 1, ImageIndex: 1, ImagePath: "/tmp/p1.png", Status: models.ImageStatusDone}
	if err := db.Create(&image).Error; err != nil {
		t.Fatalf("insert image: %v", err)
	}

	if err := service.Delete(context.Background(), user.ID, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var projectCount, imageCount int64
	if err := db.Model(&models.Project{}).Where("id = ?", project.ID).Count(&projectCount).Error; err != nil {
		t.Fatalf("count projects: %v", err)
	}
	if err := db.Model(&models.Image{}).Where("project_id = ?", project.ID).Count(&imageCount).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if projectCount != 0 || imageCount != 0 {
		t.Fatalf("remaining rows project=%d image=%d, want 0 each", projectCount, imageCount)
	}

	if err := service.Delete(context.Background(), user.ID, project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("delete again: err = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectServiceGetImageOwnership(t *testing.T) {
	db := openTestDB(t)
	owner := createTestUser(t, db, "anna@example.com")
	stranger := createTestUser(t, db, "ben@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project := models.Project{UserID: owner.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("insert project: %v", err)
	}
	image := models.Image{ProjectID: project.ID, PageNumber: 1, ImageIndex: 1, ImagePath: "/tmp/p1.png", Status: models.ImageStatusDone}
	if err := db.Create(&image).Error; err != nil {
		t.Fatalf("insert image: %v", err)
	}

	loaded, err := service.GetImage(context.Background(), owner.ID, image.ID)
	if err != nil {
		t.Fatalf("GetImage as owner: %v", err)
	}
	if loaded.ID != image.ID {
		t.Fatalf("ID = %d, want %d", loaded.ID, image.ID)
	}

	if _, err := service.GetImage(context.Background(), stranger.ID, image.ID); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("GetImage as stranger: err = %v, want ErrImageNotFound", err)
	}
}

func TestProjectServiceUpdateAltText(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project := models.Project{UserID: user.ID, Filename: "a.pdf", OriginalPath: "/tmp/a.pdf", Status: models.ProjectStatusDone}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("insert project: %v", err)
	}
	image := models.Image{ProjectID: project.ID, PageNumber: 1, ImageIndex: 1, ImagePath: "/tmp/p1.png", AltText: "generiert", Status: models.ImageStatusDone}
	if err := db.Create(&image).Error; err != nil {
		t.Fatalf("insert image: %v", err)
	}

	if err := service.UpdateAltText(context.Background(), user.ID, image.ID, "Handgeschriebener Alt-Text."); err != nil {
		t.Fatalf("UpdateAltText: %v", err)
	}

	var updated models.Image
	if err := db.First(&updated, image.ID).Error; err != nil {
		t.Fatalf("select image: %v", err)
	}
	if updated.AltTextEdited == nil || *updated.AltTextEdited != "Handgeschriebener Alt-Text." {
		t.Fatalf("AltTextEdited = %v, want %q", updated.AltTextEdited, "Handgeschriebener Alt-Text.")
	}
	if updated.AltText != "generiert" {
		t.Fatalf("AltText = %q, want untouched %q", updated.AltText, "generiert")
	}

	if err := service.UpdateAltText(context.Background(), user.ID, 9999, "x"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("missing image: err = %v, want ErrImageNotFound", err)
	}
}

func TestProjectServiceCreateFromUploadCaseInsensitiveSuffix(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "anna@example.com")
	service, _ := newTestProjectService(t, db, &stubExtractor{})

	project, err := service.CreateFromUpload(context.Background(), user.ID, "BERICHT.PDF", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("CreateFromUpload upper-case suffix: %v", err)
	}
	if project.Filename != "BERICHT.PDF" {
		t.Fatalf("Filename = %q, want %q", project.Filename, "BERICHT.PDF")
	}
}
