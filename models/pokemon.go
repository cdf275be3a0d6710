package models

import "fmt"

// Category codes for playable characters.
const (
	CategoryAllRounder = "AR"
	CategoryAttacker   = "A"
	CategoryDefender   = "D"
	CategorySpeedster  = "SS"
	CategorySupporter  = "S"
)

var categoryNames = map[string]string{
	CategoryAllRounder: "All-rounder",
	CategoryAttacker:   "Attacker",
	CategoryDefender:   "Defender",
	CategorySpeedster:  "Speedster",
	CategorySupporter:  "Supporter",
}

// Pokemon is one entry of the playable character catalog. The ID is the
// stable internal key; Name is the display name shown on report pages.
type Pokemon struct {
	ID       string `gorm:"primaryKey;size:64"`
	Name     string `gorm:"size:64;not null"`
	Category string `gorm:"size:5;not null"`
}

// CategoryDisplay returns the long form of the category code, or the code
// itself for an unknown value.
func (p Pokemon) CategoryDisplay() string {
	if n, ok := categoryNames[p.Category]; ok {
		return n
	}
	return p.Category
}

func (p Pokemon) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.CategoryDisplay())
}
