package repository

import (
	"context"

	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepo struct {
	db *gorm.DB
}

// NewGormRepository stores templates in the invoice_templates table.
func NewGormRepository(db *gorm.DB) templatedomain.Repository {
	return &gormRepo{db: db}
}

func (r *gormRepo) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&templatedomain.Template{}).
		Order("created_at ASC").
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *gormRepo) FindByName(ctx context.Context, name string) (*templatedomain.Template, error) {
	var tmpl templatedomain.Template
	err := r.db.WithContext(ctx).Raw(
		`SELECT name, snapshot, created_at, updated_at
		 FROM invoice_templates
		 WHERE name = ?`,
		name,
	).Scan(&tmpl).Error
	if err != nil {
		return nil, err
	}
	if tmpl.Name == "" {
		return nil, nil
	}
	return &tmpl, nil
}

func (r *gormRepo) Upsert(ctx context.Context, tmpl *templatedomain.Template) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(tmpl).Error
}
