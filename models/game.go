package models

import (
	"fmt"
	"time"
)

// Game stores the result of one match; the individual results of each player
// live in PlayerStat rows referencing it.
type Game struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Date           time.Time    `gorm:"not null;index"`
	Season         uint         `gorm:"not null;index"` // seasons start at 1
	IsWon          bool         `gorm:"not null;default:false"`
	IsForfeit      bool         `gorm:"not null;default:false"`
	ScoreAllies    uint         `gorm:"not null"`
	ScoreOpponents uint         `gorm:"not null"`
	Players        []PlayerStat `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (g Game) String() string {
	outcome := "perdue"
	if g.IsWon {
		outcome = "gagnée"
	}
	return fmt.Sprintf("Partie du %s (%s)", g.Date.Format("02/01/2006 à 15:04"), outcome)
}
