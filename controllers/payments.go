package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"
)

// PaymentController handles enrollment payments through the stub gateway.
// A payment starts pending and is later completed by the gateway callback.
type PaymentController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewPaymentController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *PaymentController {
	return &PaymentController{DB: db, Store: st, Audit: audit}
}

var errPaymentSettled = errors.New("payment already settled")

type initiatePaymentRequest struct {
	EnrollmentID uint `json:"enrollment_id" form:"enrollment_id"`
}

// InitiatePayment opens a pending payment for the caller's enrollment and
// hands back the gateway URL.
func (pc *PaymentController) InitiatePayment(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil || req.EnrollmentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enrollment_id is required"})
	}

	enrollment, err := pc.Store.EnrollmentByID(req.EnrollmentID)
	if err != nil {
		return lookupError(c, err)
	}
	if enrollment.StudentID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your enrollment"})
	}
	if enrollment.PaymentStatus == models.PaymentCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Enrollment is already paid"})
	}

	payment := models.Payment{
		EnrollmentID:  enrollment.ID,
		TransactionID: uuid.New().String(),
		Amount:        enrollment.Amount,
		Status:        models.TransactionPending,
	}
	if err := pc.DB.Create(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initiate payment"})
	}

	pc.Audit.Log(c, "CREATE", "payments", payment.ID, fiber.Map{
		"enrollment_id": enrollment.ID,
		"amount":        payment.Amount,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction_id": payment.TransactionID,
		"amount":         payment.Amount,
		"payment_url":    fmt.Sprintf("https://payment-gateway.example.com/pay/%s", payment.TransactionID),
	})
}

type completePaymentRequest struct {
	TransactionID string `json:"transaction_id" form:"transaction_id"`
	Status        string `json:"status" form:"status"`
}

// CompletePayment settles a pending payment and mirrors the outcome onto
// the enrollment.
func (pc *PaymentController) CompletePayment(c *fiber.Ctx) error {
	var req completePaymentRequest
	if err := c.BodyParser(&req); err != nil || req.TransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "transaction_id is required"})
	}

	var paymentStatus, enrollmentStatus string
	switch req.Status {
	case models.TransactionSuccess:
		paymentStatus = models.TransactionSuccess
		enrollmentStatus = models.PaymentCompleted
	case models.TransactionFailed:
		paymentStatus = models.TransactionFailed
		enrollmentStatus = models.PaymentFailed
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be success or failed"})
	}

	payment, err := pc.Store.PaymentByTransaction(req.TransactionID)
	if err != nil {
		return lookupError(c, err)
	}

	// The status guard on the UPDATE makes settlement single-shot even when
	// the gateway delivers the callback twice concurrently.
	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.TransactionPending).
			UpdateColumn("status", paymentStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPaymentSettled
		}
		return tx.Model(&models.Enrollment{}).
			Where("id = ?", payment.EnrollmentID).
			UpdateColumn("payment_status", enrollmentStatus).Error
	})
	if errors.Is(err, errPaymentSettled) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is already settled"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete payment"})
	}

	pc.Audit.Log(c, "UPDATE", "payments", payment.ID, fiber.Map{
		"status": paymentStatus,
	})

	return c.JSON(fiber.Map{
		"message": "Payment processed",
		"status":  paymentStatus,
	})
}

// GetMyPayments lists the caller's payments across their enrollments.
func (pc *PaymentController) GetMyPayments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var payments []models.Payment
	if err := pc.DB.
		Joins("JOIN enrollments ON enrollments.id = payments.enrollment_id").
		Where("enrollments.student_id = ?", user.ID).
		Order("payments.created_at DESC").
		Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
	}

	return c.JSON(fiber.Map{"payments": payments, "total": len(payments)})
}
