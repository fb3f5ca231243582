package database

import (
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for truncation: children come before parents.
func PersistentModels() []any {
	return []any{
		&models.Message{},
		&models.Conversation{},
		&models.Follow{},
		&models.Post{},
		&models.User{},
	}
}

// TableNames resolves the table name of every persistent model.
func TableNames(db *gorm.DB) []string {
	names := make([]string, 0, len(PersistentModels()))
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			continue
		}
		names = append(names, stmt.Schema.Table)
	}
	return names
}
