package gameimport

import (
	"fmt"
	"path"
	"strings"

	"gorm.io/gorm"

	"fcstats/models"
)

// Importer turns one scraped CSV export into persisted games. A call either
// commits every match of the batch or nothing at all.
type Importer struct {
	DB *gorm.DB
	// Reconciliation data, preset to the package defaults by New.
	CharacterPatches map[string]string
	PseudoAliases    map[string]string
	Placeholder      string
}

// New builds an Importer with the default reconciliation tables.
func New(db *gorm.DB) *Importer {
	return &Importer{
		DB:               db,
		CharacterPatches: copyTable(DefaultCharacterPatches),
		PseudoAliases:    copyTable(DefaultPseudoAliases),
		Placeholder:      DefaultPlaceholder,
	}
}

type parsedMatch struct {
	game    models.Game
	players []models.PlayerStat
}

// ImportBatch validates and persists a full export. rows excludes the header
// line. It returns the number of matches created; on any error nothing is
// written. Error messages carry the offending CSV line (header counted) so
// the operator can fix the source file and retry.
func (im *Importer) ImportBatch(rows [][]string, season uint) (int, error) {
	if season < 1 {
		return 0, fmt.Errorf("season must be at least 1, got %d", season)
	}
	if len(rows)%rowsPerMatch != 0 {
		return 0, fmt.Errorf("%w: %d rows after the header", ErrRowCount, len(rows))
	}
	n := len(rows) / rowsPerMatch
	if n == 0 {
		return 0, nil
	}

	index, err := im.characterIndex()
	if err != nil {
		return 0, err
	}
	roster, err := im.rosterSet()
	if err != nil {
		return 0, err
	}

	// Full validation pre-pass; the transaction below only sees clean data.
	matches := make([]parsedMatch, 0, n)
	for i := 0; i < n; i++ {
		m, err := im.parseMatch(rows, i, n, season, index, roster)
		if err != nil {
			return 0, err
		}
		matches = append(matches, m)
	}

	err = im.DB.Transaction(func(tx *gorm.DB) error {
		for mi := range matches {
			m := &matches[mi]
			if err := tx.Create(&m.game).Error; err != nil {
				return fmt.Errorf("%w: create match %d: %v", ErrStorage, mi+1, err)
			}
			for pi := range m.players {
				m.players[pi].GameID = m.game.ID
			}
			if err := tx.Create(&m.players).Error; err != nil {
				return fmt.Errorf("%w: create players of match %d: %v", ErrStorage, mi+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// parseMatch assembles match i of n from its 13-row block and its metadata
// row, resolving sides, characters and pseudos.
func (im *Importer) parseMatch(rows [][]string, i, n int, season uint, index map[string]string, roster map[string]struct{}) (parsedMatch, error) {
	base := i * dataRowsPerMatch

	meta, err := parseMetaRow(rows[n*dataRowsPerMatch+i], csvLine(n*dataRowsPerMatch+i))
	if err != nil {
		return parsedMatch{}, err
	}
	teamA, err := parseTeamRow(rows[base], csvLine(base))
	if err != nil {
		return parsedMatch{}, err
	}
	teamB, err := parseTeamRow(rows[base+1], csvLine(base+1))
	if err != nil {
		return parsedMatch{}, err
	}

	// Summary row order does not indicate which score is the club's; the team
	// whose own result indicator agrees with the metadata result is the
	// allies'. Player rows are positional regardless: the first five are
	// always the allies.
	var allies, opponents teamRow
	switch {
	case teamA.won == meta.won && teamB.won != meta.won:
		allies, opponents = teamA, teamB
	case teamB.won == meta.won && teamA.won != meta.won:
		allies, opponents = teamB, teamA
	default:
		return parsedMatch{}, fmt.Errorf("%w: match %d (lines %d and %d)", ErrSideAmbiguous, i+1, csvLine(base), csvLine(base+1))
	}

	if !meta.forfeit && allies.score != opponents.score && (allies.score > opponents.score) != meta.won {
		return parsedMatch{}, fmt.Errorf("match %d: result flag disagrees with scores %d-%d", i+1, allies.score, opponents.score)
	}

	players := make([]models.PlayerStat, 0, 2*playersPerTeam)
	seenPseudo := map[string]struct{}{}
	seenCharacter := map[string]struct{}{}
	for j := 0; j < 2*playersPerTeam; j++ {
		rowIdx := base + 2 + j
		pr, err := parsePlayerRow(rows[rowIdx], csvLine(rowIdx))
		if err != nil {
			return parsedMatch{}, err
		}
		isOpponent := j >= playersPerTeam

		pseudo := pr.pseudo
		if isOpponent && pseudo == im.Placeholder {
			// The export conflates every bot under one label; append the row
			// position to keep pseudos unique within the match.
			pseudo = fmt.Sprintf("%s %d", im.Placeholder, j+1)
		}
		if alias, ok := im.PseudoAliases[pseudo]; ok {
			pseudo = alias
		}

		charID, ok := index[spriteToken(pr.sprite)]
		if !ok {
			return parsedMatch{}, fmt.Errorf("%w: sprite %q (line %d)", ErrUnknownCharacter, pr.sprite, csvLine(rowIdx))
		}
		if !isOpponent {
			if _, ok := roster[pseudo]; !ok {
				return parsedMatch{}, fmt.Errorf("%w: %q (line %d)", ErrUnknownTeammate, pseudo, csvLine(rowIdx))
			}
		}
		if _, dup := seenPseudo[pseudo]; dup {
			return parsedMatch{}, fmt.Errorf("match %d: duplicate pseudo %q (line %d)", i+1, pseudo, csvLine(rowIdx))
		}
		seenPseudo[pseudo] = struct{}{}
		charKey := fmt.Sprintf("%t/%s", isOpponent, charID)
		if _, dup := seenCharacter[charKey]; dup {
			return parsedMatch{}, fmt.Errorf("match %d: duplicate character %s on the same side (line %d)", i+1, charID, csvLine(rowIdx))
		}
		seenCharacter[charKey] = struct{}{}

		players = append(players, models.PlayerStat{
			Pseudo:     pseudo,
			PokemonID:  charID,
			IsOpponent: isOpponent,
			Scored:     pr.scored,
			Kills:      pr.kills,
			Assists:    pr.assists,
			Result:     0, // not present in the export, entered manually later
		})
	}

	return parsedMatch{
		game: models.Game{
			Date:           meta.date,
			Season:         season,
			IsWon:          meta.won,
			IsForfeit:      meta.forfeit,
			ScoreAllies:    allies.score,
			ScoreOpponents: opponents.score,
		},
		players: players,
	}, nil
}

// csvLine converts an index into the header-stripped row slice to the
// 1-based line number of the source file.
func csvLine(i int) int {
	return i + 2
}

// spriteToken reduces a sprite URL to its catalog lookup key: directory and
// extension stripped, the "Square" asset prefix dropped, lower-cased.
func spriteToken(u string) string {
	base := path.Base(u)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimPrefix(base, "Square")
	base = strings.TrimLeft(base, "_-")
	return strings.ToLower(base)
}

// characterIndex seeds the token table from the catalog (display names with
// spaces removed, lower-cased) and overlays the spelling patches.
func (im *Importer) characterIndex() (map[string]string, error) {
	var catalog []models.Pokemon
	if err := im.DB.Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("%w: load character catalog: %v", ErrStorage, err)
	}
	index := make(map[string]string, len(catalog)+len(im.CharacterPatches))
	for _, p := range catalog {
		index[strings.ToLower(strings.ReplaceAll(p.Name, " ", ""))] = p.ID
	}
	for token, id := range im.CharacterPatches {
		index[token] = id
	}
	return index, nil
}

func (im *Importer) rosterSet() (map[string]struct{}, error) {
	var roster []models.Teammate
	if err := im.DB.Find(&roster).Error; err != nil {
		return nil, fmt.Errorf("%w: load club roster: %v", ErrStorage, err)
	}
	set := make(map[string]struct{}, len(roster))
	for _, t := range roster {
		set[t.Pseudo] = struct{}{}
	}
	return set, nil
}
