// File: internal/domain/item.go
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemReturned  ItemStatus = "returned"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryAccessories Category = "accessories"
	CategoryDocuments   Category = "documents"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryKeys        Category = "keys"
	CategoryWallet      Category = "wallet"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryElectronics, CategoryAccessories, CategoryDocuments, CategoryClothing,
	CategoryBooks, CategoryKeys, CategoryWallet, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Item is a found object reported by its finder (the uploader).
type Item struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	UploaderID  string         `json:"uploader_id" gorm:"size:36;not null;index"`
	Building    string         `json:"building" gorm:"size:100;not null;index"`
	Classroom   string         `json:"classroom" gorm:"size:50;not null"`
	Description string         `json:"description" gorm:"size:500;not null"`
	Category    Category       `json:"category" gorm:"size:32;not null"`
	FoundDate   string         `json:"date" gorm:"column:date;size:10;not null;index"`
	FoundTime   string         `json:"time" gorm:"column:time;size:5;not null"`
	ImageURL    *string        `json:"image_url"`
	Status      ItemStatus     `json:"status" gorm:"size:16;not null;default:available;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Item) TableName() string { return "items" }

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = ItemAvailable
	}
	return nil
}

// Normalize trims the free-text fields in place.
func (i *Item) Normalize() {
	i.Building = strings.TrimSpace(i.Building)
	i.Classroom = strings.TrimSpace(i.Classroom)
	i.Description = strings.TrimSpace(i.Description)
}

// Validate applies the item report rules. It expects Normalize to have run.
func (i *Item) Validate() error {
	switch n := utf8.RuneCountInString(i.Building); {
	case n < 1:
		return errors.New("Building is required")
	case n > 100:
		return errors.New("Building name too long")
	}
	switch n := utf8.RuneCountInString(i.Classroom); {
	case n < 1:
		return errors.New("Classroom is required")
	case n > 50:
		return errors.New("Classroom name too long")
	}
	switch n := utf8.RuneCountInString(i.Description); {
	case n < 10:
		return errors.New("Description must be at least 10 characters")
	case n > 500:
		return errors.New("Description too long")
	}
	if !i.Category.Valid() {
		return errors.New("Please select a valid category")
	}
	if !datePattern.MatchString(i.FoundDate) {
		return errors.New("Invalid date format")
	}
	if !timePattern.MatchString(i.FoundTime) {
		return errors.New("Invalid time format")
	}
	return nil
}

// ItemSummary is the slice of an item shown in the conversation inbox.
type ItemSummary struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Building    string  `json:"building"`
	Classroom   string  `json:"classroom"`
	ImageURL    *string `json:"image_url"`
}

func (i *Item) Summary() ItemSummary {
	return ItemSummary{
		ID:          i.ID,
		Description: i.Description,
		Building:    i.Building,
		Classroom:   i.Classroom,
		ImageURL:    i.ImageURL,
	}
}
