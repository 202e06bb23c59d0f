package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autoecole_go/config"
	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/policy"
	"autoecole_go/store"
	"autoecole_go/storage"
	"autoecole_go/utils"
)

// DocumentController handles identity document upload and verification.
type DocumentController struct {
	DB      *gorm.DB
	Store   *store.Store
	Cfg     *config.Config
	Storage *storage.StorageService
	Audit   *middleware.ActivityLogger
}

func NewDocumentController(db *gorm.DB, st *store.Store, cfg *config.Config, ss *storage.StorageService, audit *middleware.ActivityLogger) *DocumentController {
	return &DocumentController{DB: db, Store: st, Cfg: cfg, Storage: ss, Audit: audit}
}

// Upload stores a file on S3 and records it against the caller.
func (dc *DocumentController) Upload(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	docType := c.FormValue("document_type")
	if !utils.IsValidDocumentType(docType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document type"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if file.Size > dc.Cfg.MaxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File exceeds the maximum allowed size"})
	}
	if !utils.IsAllowedUploadType(file.Header.Get("Content-Type")) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only jpeg, jpg, png and pdf files are accepted"})
	}

	fileURL, err := dc.Storage.UploadFile(file, "documents/"+docType, user.ID)
	if err != nil {
		logrus.WithError(err).Error("document upload failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store file"})
	}

	doc := models.Document{
		UserID:       user.ID,
		DocumentType: docType,
		FileURL:      fileURL,
		FileName:     file.Filename,
		FileSize:     file.Size,
	}
	if err := dc.DB.Create(&doc).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save document"})
	}

	dc.Audit.Log(c, "CREATE", "documents", doc.ID, fiber.Map{
		"document_type": docType,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
}

// GetMyDocuments lists the caller's own documents.
func (dc *DocumentController) GetMyDocuments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var docs []models.Document
	if err := dc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch documents"})
	}

	return c.JSON(fiber.Map{"documents": docs, "total": len(docs)})
}

// GetUserDocuments lists another user's documents for staff who may see
// them: managers, and teachers whose school the owner is enrolled at.
func (dc *DocumentController) GetUserDocuments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	ownerID, err := c.ParamsInt("user_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	owner, err := dc.Store.UserByID(uint(ownerID))
	if err != nil {
		return lookupError(c, err)
	}

	teacher, err := dc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	enrollments, err := dc.Store.EnrollmentsByStudent(owner.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve enrollments"})
	}
	if err := policy.CanViewDocuments(user, teacher, owner.ID, enrollments); err != nil {
		return policyError(c, err)
	}

	var docs []models.Document
	if err := dc.DB.Where("user_id = ?", owner.ID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch documents"})
	}

	return c.JSON(fiber.Map{"documents": docs, "total": len(docs)})
}

// DeleteDocument removes one of the caller's own unverified documents,
// deleting the stored file best effort before the record goes.
func (dc *DocumentController) DeleteDocument(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	docID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	doc, err := dc.Store.DocumentByID(uint(docID))
	if err != nil {
		return lookupError(c, err)
	}
	if doc.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your document"})
	}
	if doc.IsVerified {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Verified documents cannot be deleted"})
	}

	if err := dc.Storage.DeleteFile(doc.FileURL); err != nil {
		logrus.WithError(err).WithField("document_id", doc.ID).Warn("Failed to delete stored file")
	}
	if err := dc.DB.Delete(doc).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete document"})
	}

	dc.Audit.Log(c, "DELETE", "documents", doc.ID, fiber.Map{
		"document_type": doc.DocumentType,
	})

	return c.JSON(fiber.Map{"message": "Document deleted"})
}

// VerifyDocument marks a document as verified by the calling manager.
func (dc *DocumentController) VerifyDocument(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	docID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document ID"})
	}

	doc, err := dc.Store.DocumentByID(uint(docID))
	if err != nil {
		return lookupError(c, err)
	}

	now := time.Now()
	doc.IsVerified = true
	doc.VerifiedBy = &user.ID
	doc.VerifiedAt = &now
	if err := dc.DB.Save(doc).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify document"})
	}

	dc.Audit.Log(c, "UPDATE", "documents", doc.ID, nil)

	return c.JSON(fiber.Map{"message": "Document verified"})
}
