// models.go this is our database models
package main

import "time"

// singletonKey is the id a singleton section gets on its first save.
const singletonKey uint = 1

type HomeSection struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Description  string    `json:"description" gorm:"type:text"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (HomeSection) TableName() string { return "home_sections" }

type AboutSection struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AboutText string    `json:"about_text" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AboutSection) TableName() string { return "about_sections" }

// Contacts fields are nullable; an empty value is stored as NULL.
type Contacts struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Whatsapp  *string   `json:"whatsapp"`
	Instagram *string   `json:"instagram"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Contacts) TableName() string { return "contacts" }

type Skill struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SkillName string    `json:"skill_name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Skill) TableName() string { return "skills" }

type Project struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description" gorm:"type:text"`
	ProjectImage *string   `json:"project_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Project) TableName() string { return "projects" }

// User is only read at login. Accounts are created by the admin seed.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	CreatedAt time.Time
}

func (User) TableName() string { return "user" }

func (h *HomeSection) setKey(id uint) { h.ID = id }
func (a *AboutSection) setKey(id uint) { a.ID = id }
func (c *Contacts) setKey(id uint) { c.ID = id }
