package controllers

import (
	"encoding/json"
	"strconv"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/storage"
	"autoecole_go/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SchoolController struct {
	DB      *gorm.DB
	Store   *store.Store
	Storage *storage.StorageService
	Audit   *middleware.ActivityLogger
}

// GetStates returns the fixed list of 58 wilayas.
func (sc *SchoolController) GetStates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"states": models.AlgerianStates})
}

// GetSchools returns a page of driving schools, optionally filtered by an
// exact state name, plus the total count for pagination.
func (sc *SchoolController) GetSchools(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	skip, _ := strconv.Atoi(c.Query("skip", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	query := sc.DB.Model(&models.DrivingSchool{})
	if state := c.Query("state"); state != "" {
		if !models.IsValidState(state) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid state",
			})
		}
		query = query.Where("state = ?", state)
	}

	var total int64
	query.Count(&total)

	var schools []models.DrivingSchool
	if err := query.Offset(skip).Limit(limit).Find(&schools).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch driving schools",
		})
	}

	return c.JSON(fiber.Map{
		"schools": schools,
		"total":   total,
		"limit":   limit,
		"skip":    skip,
	})
}

// GetSchool returns one school with its teachers, each enriched with the
// linked user profile.
func (sc *SchoolController) GetSchool(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid school ID",
		})
	}

	var school models.DrivingSchool
	if err := sc.DB.Preload("Teachers").Preload("Teachers.User").First(&school, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Driving school not found",
		})
	}

	return c.JSON(fiber.Map{"school": school})
}

// CreateSchool registers a new driving school for the calling manager.
// Multipart body; optional logo and photos are uploaded best effort, a
// failed photo is logged and skipped rather than failing the request.
func (sc *SchoolController) CreateSchool(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	state := c.FormValue("state")
	if !models.IsValidState(state) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state",
		})
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid price",
		})
	}

	school := models.DrivingSchool{
		Name:        c.FormValue("name"),
		Address:     c.FormValue("address"),
		State:       state,
		Phone:       c.FormValue("phone"),
		Email:       c.FormValue("email"),
		Description: c.FormValue("description"),
		Price:       price,
		ManagerID:   user.ID,
	}
	if school.Name == "" || school.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and address are required",
		})
	}

	if lat := c.FormValue("latitude"); lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			school.Latitude = &v
		}
	}
	if lng := c.FormValue("longitude"); lng != "" {
		if v, err := strconv.ParseFloat(lng, 64); err == nil {
			school.Longitude = &v
		}
	}

	if sc.Storage != nil {
		if logo, err := c.FormFile("logo"); err == nil {
			if url, err := sc.Storage.UploadFile(logo, "schools/logos", user.ID); err == nil {
				school.LogoURL = url
			} else {
				logrus.WithError(err).Warn("Logo upload failed, continuing without logo")
			}
		}

		if form, err := c.MultipartForm(); err == nil {
			var photoURLs []string
			for _, photo := range form.File["photos"] {
				url, err := sc.Storage.UploadFile(photo, "schools/photos", user.ID)
				if err != nil {
					logrus.WithError(err).Warnf("Photo upload failed, skipping %s", photo.Filename)
					continue
				}
				photoURLs = append(photoURLs, url)
			}
			if len(photoURLs) > 0 {
				if b, err := json.Marshal(photoURLs); err == nil {
					school.Photos = b
				}
			}
		}
	}

	if err := sc.DB.Create(&school).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create driving school",
		})
	}

	sc.Audit.Log(c, "CREATE", "driving_schools", school.ID, fiber.Map{
		"name":  school.Name,
		"state": school.State,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      school.ID,
		"message": "Driving school created successfully",
	})
}
