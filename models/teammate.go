package models

// Teammate lists the players of the club team tracked by the app. Ally
// PlayerStat rows must use one of these pseudos.
type Teammate struct {
	Pseudo string `gorm:"primaryKey;size:64"`
}

func (t Teammate) String() string {
	return t.Pseudo
}
