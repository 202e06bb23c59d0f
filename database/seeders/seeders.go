package seeders

import (
	"log"

	"gorm.io/gorm"

	"autoecole_go/models"
	"autoecole_go/utils"
)

// SeedSampleData creates a minimal demo dataset: one manager with a school,
// one teacher and one student. Safe to run repeatedly.
func SeedSampleData(db *gorm.DB) {
	log.Println("Starting database seeding...")

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	password, err := utils.HashPassword("password123")
	if err != nil {
		log.Println("Seeding aborted, could not hash password:", err)
		return
	}

	manager := models.User{
		Email:     "manager@example.com",
		Password:  password,
		FirstName: "Karim",
		LastName:  "Benali",
		Phone:     "0550000001",
		Gender:    models.GenderMale,
		Role:      models.RoleManager,
		Active:    true,
	}
	teacherUser := models.User{
		Email:     "teacher@example.com",
		Password:  password,
		FirstName: "Amina",
		LastName:  "Cherif",
		Phone:     "0550000002",
		Gender:    models.GenderFemale,
		Role:      models.RoleTeacher,
		Active:    true,
	}
	student := models.User{
		Email:     "student@example.com",
		Password:  password,
		FirstName: "Yacine",
		LastName:  "Mansouri",
		Phone:     "0550000003",
		Gender:    models.GenderMale,
		Role:      models.RoleStudent,
		Active:    true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, u := range []*models.User{&manager, &teacherUser, &student} {
			if err := tx.Create(u).Error; err != nil {
				return err
			}
		}

		school := models.DrivingSchool{
			Name:        "Auto École El Amane",
			Address:     "12 Rue Didouche Mourad",
			State:       "Alger",
			Phone:       "0230000001",
			Email:       "contact@elamane.dz",
			Description: "Driving school in central Algiers",
			Price:       45000,
			ManagerID:   manager.ID,
		}
		if err := tx.Create(&school).Error; err != nil {
			return err
		}

		teacher := models.Teacher{
			UserID:          teacherUser.ID,
			DrivingSchoolID: school.ID,
			CanTeachMale:    true,
			CanTeachFemale:  true,
		}
		return tx.Create(&teacher).Error
	})
	if err != nil {
		log.Println("Database seeding failed:", err)
		return
	}

	log.Println("Database seeding completed successfully!")
}
