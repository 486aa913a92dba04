// Package members provides database operations for the member roster.
package members

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/database/textsearch"
	"github.com/mrlokans/librarydesk/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a member by ID.
func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByEmail retrieves a member by email address.
func (r *Repository) GetByEmail(email string) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Where("email = ?", email).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// List retrieves all members in storage order.
func (r *Repository) List() ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.Order("id ASC").Find(&members).Error
	return members, err
}

// Search returns members whose name, email or phone contains query (case-sensitive).
func (r *Repository) Search(query string) ([]entities.Member, error) {
	var members []entities.Member
	err := textsearch.Contains(r.db, query, "name", "email", "phone").
		Order("id ASC").
		Find(&members).Error
	return members, err
}

func (r *Repository) Create(member *entities.Member) error {
	return r.db.Omit(clause.Associations).Create(member).Error
}

func (r *Repository) Save(member *entities.Member) error {
	return r.db.Omit(clause.Associations).Save(member).Error
}

// Delete hard-deletes a member. Returns gorm.ErrRecordNotFound if nothing was removed.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Member{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entities.Member{}).Count(&total).Error
	return total, err
}
