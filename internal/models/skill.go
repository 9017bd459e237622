package models

type Skill struct {
	BaseModel
	Name        string        `gorm:"uniqueIndex;not null" json:"name"`
	Category    SkillCategory `gorm:"type:varchar(20);not null" json:"category"`
	Description string        `json:"description"`
}
