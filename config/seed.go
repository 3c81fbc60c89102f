package config

import (
	"fmt"

	"github.com/kendall-kelly/makanika-api/models"
	"gorm.io/gorm"
)

// SeedRoles creates the admin, mechanic and customer roles if they are missing
func SeedRoles(db *gorm.DB) error {
	for _, def := range models.DefaultRoles {
		role := models.Role{}
		err := db.Where(models.Role{Name: def.Name}).
			Attrs(models.Role{Description: def.Description}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
		}
	}
	return nil
}
