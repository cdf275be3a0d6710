package gameimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Row layout of the scraped export: one header line, then N match blocks of
// 13 rows each (2 team summary rows, 10 player rows, 1 blank separator),
// followed by N metadata rows appended after all blocks. Block i and metadata
// row i describe the same match.
const (
	rowsPerMatch     = 14
	dataRowsPerMatch = 13
	playersPerTeam   = 5
)

const metaTimeLayout = "02-01-2006 15:04"

// teamRow is one of the two per-team summary lines of a match block. The
// export does not order teams by side; the won flag is the team's own result
// indicator, used to work out which physical team is the club's.
type teamRow struct {
	won   bool
	score uint
}

// playerRow is one player line of a match block.
type playerRow struct {
	pseudo  string
	sprite  string // character sprite URL, carries the identity token
	scored  uint
	kills   uint
	assists uint
}

// metaRow is the trailing per-match line holding what the block itself lacks.
type metaRow struct {
	won     bool
	forfeit bool
	date    time.Time
}

// ReadRows decodes a whole export file and strips the single header line.
// Field counts vary between row roles, so per-record validation is left to
// the parse step.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, errors.New("empty export file")
	}
	return all[1:], nil
}

// lostPrefix interprets a result indicator: a leading L (any case) means a
// loss, anything else a win.
func lostPrefix(result string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(result)), "L")
}

func parseTeamRow(row []string, line int) (teamRow, error) {
	if len(row) < 3 {
		return teamRow{}, fmt.Errorf("line %d: team summary needs 3 fields, got %d", line, len(row))
	}
	result := strings.TrimSpace(row[1])
	if result == "" {
		return teamRow{}, fmt.Errorf("line %d: empty team result indicator", line)
	}
	score, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
	if err != nil {
		return teamRow{}, fmt.Errorf("line %d: malformed team score %q", line, row[2])
	}
	return teamRow{won: !lostPrefix(result), score: uint(score)}, nil
}

func parsePlayerRow(row []string, line int) (playerRow, error) {
	if len(row) < 4 {
		return playerRow{}, fmt.Errorf("line %d: player row needs 4 fields, got %d", line, len(row))
	}
	pseudo := strings.TrimSpace(row[0])
	if pseudo == "" {
		return playerRow{}, fmt.Errorf("line %d: empty player name", line)
	}
	scored, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
	if err != nil {
		return playerRow{}, fmt.Errorf("line %d: malformed scored points %q", line, row[2])
	}
	// The kill/assist cell is a compound "kills|assists|<ignored>" value.
	parts := strings.Split(row[3], "|")
	if len(parts) < 2 {
		return playerRow{}, fmt.Errorf("line %d: malformed kill/assist cell %q", line, row[3])
	}
	kills, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return playerRow{}, fmt.Errorf("line %d: malformed kill count %q", line, parts[0])
	}
	assists, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return playerRow{}, fmt.Errorf("line %d: malformed assist count %q", line, parts[1])
	}
	return playerRow{
		pseudo:  pseudo,
		sprite:  strings.TrimSpace(row[1]),
		scored:  uint(scored),
		kills:   uint(kills),
		assists: uint(assists),
	}, nil
}

func parseMetaRow(row []string, line int) (metaRow, error) {
	if len(row) < 3 {
		return metaRow{}, fmt.Errorf("line %d: metadata row needs 3 fields, got %d", line, len(row))
	}
	result := strings.TrimSpace(row[0])
	if result == "" {
		return metaRow{}, fmt.Errorf("line %d: empty match result", line)
	}
	date, err := time.Parse(metaTimeLayout, strings.TrimSpace(row[2]))
	if err != nil {
		return metaRow{}, fmt.Errorf("line %d: malformed match timestamp %q", line, row[2])
	}
	return metaRow{
		won:     !lostPrefix(result),
		forfeit: truthy(row[1]),
		date:    date,
	}, nil
}

// truthy reports whether the forfeit cell is set. The export leaves it empty
// for regular matches.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}
