package models

import (
	"fmt"
	"time"
)

// PlayerStat stores the results of one player for a given game. A game holds
// exactly ten of these, five per side. The composite unique indexes enforce
// the two in-match constraints: no duplicate pseudo, and no duplicate
// character within the same side.
type PlayerStat struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	GameID     uint    `gorm:"not null;index;uniqueIndex:idx_game_pseudo;uniqueIndex:idx_game_pokemon_side"`
	Pseudo     string  `gorm:"size:64;not null;uniqueIndex:idx_game_pseudo"`
	PokemonID  string  `gorm:"size:64;not null;uniqueIndex:idx_game_pokemon_side"`
	Pokemon    Pokemon `gorm:"foreignKey:PokemonID;references:ID"`
	IsOpponent bool    `gorm:"not null;uniqueIndex:idx_game_pokemon_side"`
	Scored     uint    `gorm:"not null"`
	Kills      uint    `gorm:"not null"`
	Assists    uint    `gorm:"not null"`
	Result     uint    `gorm:"not null"` // overall rating, 0 until entered manually for imports
}

func (p PlayerStat) String() string {
	side := "FCS"
	if p.IsOpponent {
		side = "Adversaire"
	}
	return fmt.Sprintf("%s: %s(%s) S%d/K%d/A%d/%d", side, p.Pseudo, p.PokemonID, p.Scored, p.Kills, p.Assists, p.Result)
}
