package gameimport

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fcstats/models"
)

var testCatalog = []models.Pokemon{
	{ID: "PIKACHU", Name: "Pikachu", Category: models.CategoryAttacker},
	{ID: "GRENINJA", Name: "Greninja", Category: models.CategoryAttacker},
	{ID: "VENUSAUR", Name: "Venusaur", Category: models.CategoryAttacker},
	{ID: "GARDEVOIR", Name: "Gardevoir", Category: models.CategoryAttacker},
	{ID: "CRAMORANT", Name: "Cramorant", Category: models.CategoryAttacker},
	{ID: "CINDERACE", Name: "Cinderace", Category: models.CategoryAttacker},
	{ID: "ZERAORA", Name: "Zeraora", Category: models.CategorySpeedster},
	{ID: "TALONFLAME", Name: "Talonflame", Category: models.CategorySpeedster},
	{ID: "ABSOL", Name: "Absol", Category: models.CategorySpeedster},
	{ID: "GENGAR", Name: "Gengar", Category: models.CategorySpeedster},
	{ID: "CHARIZARD", Name: "Charizard", Category: models.CategoryAllRounder},
	{ID: "LUCARIO", Name: "Lucario", Category: models.CategoryAllRounder},
	{ID: "SNORLAX", Name: "Snorlax", Category: models.CategoryDefender},
	{ID: "SLOWBRO", Name: "Slowbro", Category: models.CategoryDefender},
	{ID: "ELDEGOSS", Name: "Eldegoss", Category: models.CategorySupporter},
	{ID: "A_NINETALES", Name: "Alolan Ninetales", Category: models.CategoryAttacker},
	{ID: "MR_MIME", Name: "Mr. Mime", Category: models.CategorySupporter},
	{ID: "WIGGLYTUFF", Name: "Wigglytuff", Category: models.CategorySupporter},
	{ID: "BLISSEY", Name: "Blissey", Category: models.CategorySupporter},
}

var testRoster = []string{"Noctule", "Tyrex", "Alice", "Bob", "Carol"}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Pokemon{}, &models.Teammate{}, &models.Game{}, &models.PlayerStat{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&testCatalog).Error; err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	for _, pseudo := range testRoster {
		if err := db.Create(&models.Teammate{Pseudo: pseudo}).Error; err != nil {
			t.Fatalf("seed roster: %v", err)
		}
	}
	return db
}

func summaryRow(result string, score int) []string {
	return []string{"Team", result, strconv.Itoa(score)}
}

func playerLine(pseudo, sprite string, scored, kills, assists int) []string {
	return []string{pseudo, sprite, strconv.Itoa(scored), fmt.Sprintf("%d|%d|%d", kills, assists, scored+kills)}
}

var allySprites = []string{
	"https://cdn.example.com/sprites/SquarePikachu.png",
	"https://cdn.example.com/sprites/SquareGreninja.png",
	"https://cdn.example.com/sprites/SquareVenusaur.png",
	"https://cdn.example.com/sprites/SquareGardevoir.png",
	"https://cdn.example.com/sprites/SquareEldegoss.png",
}

var opponentSprites = []string{
	"https://cdn.example.com/sprites/SquareZeraora.png",
	"https://cdn.example.com/sprites/SquareCharizard.png",
	"https://cdn.example.com/sprites/SquareSnorlax.png",
	"https://cdn.example.com/sprites/SquareCramorant.png",
	"https://cdn.example.com/sprites/SquareBlissey.png",
}

var opponentNames = []string{"Rival1", "Rival2", "Rival3", "Rival4", "Rival5"}

// matchBlock builds the 13 data rows of one match, allies listed first.
func matchBlock(allyResult string, allyScore int, oppResult string, oppScore int) [][]string {
	rows := [][]string{
		summaryRow(allyResult, allyScore),
		summaryRow(oppResult, oppScore),
	}
	for i, pseudo := range testRoster {
		rows = append(rows, playerLine(pseudo, allySprites[i], 40+i, i, 2*i))
	}
	for i, pseudo := range opponentNames {
		rows = append(rows, playerLine(pseudo, opponentSprites[i], 30+i, i, i))
	}
	return append(rows, []string{"", "", ""})
}

func TestImportBatchTwoMatches(t *testing.T) {
	db := testDB(t)
	im := New(db)

	var rows [][]string
	rows = append(rows, matchBlock("Won", 450, "Lost", 320)...)
	rows = append(rows, matchBlock("Lost", 210, "Won", 500)...)
	rows = append(rows,
		[]string{"W", "", "21-09-2021 20:30"},
		[]string{"Lost", "", "21-09-2021 21:05"},
	)

	created, err := im.ImportBatch(rows, 3)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 matches created, got %d", created)
	}

	var games []models.Game
	if err := db.Order("date").Find(&games).Error; err != nil {
		t.Fatalf("load games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games in store, got %d", len(games))
	}
	if !games[0].IsWon || games[0].ScoreAllies != 450 || games[0].ScoreOpponents != 320 {
		t.Fatalf("first game wrong: %+v", games[0])
	}
	if games[1].IsWon || games[1].ScoreAllies != 210 || games[1].ScoreOpponents != 500 {
		t.Fatalf("second game wrong: %+v", games[1])
	}
	if games[0].Season != 3 || games[1].Season != 3 {
		t.Fatalf("season not applied: %d/%d", games[0].Season, games[1].Season)
	}

	var stats []models.PlayerStat
	if err := db.Find(&stats).Error; err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if len(stats) != 20 {
		t.Fatalf("expected 20 player records, got %d", len(stats))
	}
	for _, s := range stats {
		if s.Result != 0 {
			t.Fatalf("result should be 0 for imported players, got %d for %s", s.Result, s.Pseudo)
		}
	}
}

func TestImportBatchRowCountFatal(t *testing.T) {
	db := testDB(t)
	im := New(db)

	rows := matchBlock("Won", 450, "Lost", 320) // 13 rows, metadata row missing
	_, err := im.ImportBatch(rows, 1)
	if !errors.Is(err, ErrRowCount) {
		t.Fatalf("expected ErrRowCount, got %v", err)
	}
	var count int64
	db.Model(&models.Game{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no games, got %d", count)
	}
}

func TestImportBatchAtomicOnBadCharacter(t *testing.T) {
	db := testDB(t)
	im := New(db)

	good := matchBlock("Won", 450, "Lost", 320)
	bad := matchBlock("Won", 430, "Lost", 280)
	bad[4][1] = "https://cdn.example.com/sprites/SquareMissingno.png"

	var rows [][]string
	rows = append(rows, good...)
	rows = append(rows, bad...)
	rows = append(rows,
		[]string{"W", "", "22-09-2021 19:00"},
		[]string{"W", "", "22-09-2021 19:40"},
	)

	_, err := im.ImportBatch(rows, 2)
	if !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("expected ErrUnknownCharacter, got %v", err)
	}

	var games, stats int64
	db.Model(&models.Game{}).Count(&games)
	db.Model(&models.PlayerStat{}).Count(&stats)
	if games != 0 || stats != 0 {
		t.Fatalf("batch not atomic: %d games, %d stats persisted", games, stats)
	}
}

func TestImportBatchUnknownTeammateAborts(t *testing.T) {
	db := testDB(t)
	im := New(db)

	block := matchBlock("Won", 450, "Lost", 320)
	block[3][0] = "Stranger" // second ally row, not in the roster

	rows := append(block,
		[]string{"W", "", "23-09-2021 18:00"},
	)

	var before int64
	db.Model(&models.PlayerStat{}).Count(&before)

	_, err := im.ImportBatch(rows, 1)
	if !errors.Is(err, ErrUnknownTeammate) {
		t.Fatalf("expected ErrUnknownTeammate, got %v", err)
	}

	var after int64
	db.Model(&models.PlayerStat{}).Count(&after)
	if before != after {
		t.Fatalf("records persisted despite roster failure: %d -> %d", before, after)
	}
}

func TestImportBatchStorageFailure(t *testing.T) {
	db := testDB(t)
	im := New(db)

	rows := append(matchBlock("Won", 450, "Lost", 320), []string{"W", "", "27-09-2021 20:00"})

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	_ = sqlDB.Close()

	_, err = im.ImportBatch(rows, 1)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

// Swapping only the two team-summary rows must not change the ally/opponent
// assignment of the player rows or the persisted scores: the cross-check
// decides which summary score is the club's, while player rows stay
// positional.
func TestSideResolutionOrderIndependent(t *testing.T) {
	db := testDB(t)
	im := New(db)

	block := matchBlock("Won", 450, "Lost", 320)
	block[0], block[1] = block[1], block[0] // opponents' summary listed first
	rows := append(block, []string{"W", "", "21-09-2021 20:30"})

	created, err := im.ImportBatch(rows, 3)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 match, got %d", created)
	}

	var game models.Game
	if err := db.First(&game).Error; err != nil {
		t.Fatalf("load game: %v", err)
	}
	if game.ScoreAllies != 450 || game.ScoreOpponents != 320 || !game.IsWon {
		t.Fatalf("side assignment changed with summary order: %+v", game)
	}
	var allyCount int64
	db.Model(&models.PlayerStat{}).Where("is_opponent = ?", false).Count(&allyCount)
	if allyCount != 5 {
		t.Fatalf("expected 5 allies, got %d", allyCount)
	}
	var noctule models.PlayerStat
	if err := db.Where("pseudo = ?", "Noctule").First(&noctule).Error; err != nil {
		t.Fatalf("load Noctule: %v", err)
	}
	if noctule.IsOpponent {
		t.Fatalf("Noctule relabeled opponent after summary swap")
	}
}

func TestSideAmbiguousIsFatal(t *testing.T) {
	db := testDB(t)
	im := New(db)

	block := matchBlock("Won", 450, "Won", 320) // both claim the win
	rows := append(block, []string{"W", "", "21-09-2021 20:30"})

	_, err := im.ImportBatch(rows, 1)
	if !errors.Is(err, ErrSideAmbiguous) {
		t.Fatalf("expected ErrSideAmbiguous, got %v", err)
	}
}

func TestPlaceholderDisambiguationInjective(t *testing.T) {
	db := testDB(t)
	im := New(db)

	block := matchBlock("Won", 450, "Lost", 320)
	// three indistinguishable bots on the opponent side
	block[7][0] = DefaultPlaceholder
	block[8][0] = DefaultPlaceholder
	block[10][0] = DefaultPlaceholder

	rows := append(block, []string{"W", "", "24-09-2021 20:00"})
	created, err := im.ImportBatch(rows, 1)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 match, got %d", created)
	}

	var bots []models.PlayerStat
	if err := db.Where("pseudo LIKE ?", DefaultPlaceholder+" %").Find(&bots).Error; err != nil {
		t.Fatalf("load bots: %v", err)
	}
	if len(bots) != 3 {
		t.Fatalf("expected 3 disambiguated bots, got %d", len(bots))
	}
	seen := map[string]bool{}
	for _, b := range bots {
		if seen[b.Pseudo] {
			t.Fatalf("duplicate placeholder pseudo %q", b.Pseudo)
		}
		seen[b.Pseudo] = true
		if !b.IsOpponent {
			t.Fatalf("placeholder %q recorded as ally", b.Pseudo)
		}
	}
}

func TestPseudoAliasApplied(t *testing.T) {
	db := testDB(t)
	im := New(db)
	im.PseudoAliases = map[string]string{"NoctuleFCS": "Noctule"}

	block := matchBlock("Won", 450, "Lost", 320)
	block[2][0] = "NoctuleFCS"

	rows := append(block, []string{"W", "", "25-09-2021 20:00"})
	if _, err := im.ImportBatch(rows, 1); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	var count int64
	db.Model(&models.PlayerStat{}).Where("pseudo = ?", "Noctule").Count(&count)
	if count != 1 {
		t.Fatalf("alias not applied, Noctule rows: %d", count)
	}
}

func TestCharacterPatchApplied(t *testing.T) {
	db := testDB(t)
	im := New(db)

	block := matchBlock("Won", 450, "Lost", 320)
	block[9][1] = "https://cdn.example.com/sprites/SquareNinetales.png"

	rows := append(block, []string{"W", "", "26-09-2021 20:00"})
	if _, err := im.ImportBatch(rows, 1); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	var count int64
	db.Model(&models.PlayerStat{}).Where("pokemon_id = ?", "A_NINETALES").Count(&count)
	if count != 1 {
		t.Fatalf("spelling patch not applied, A_NINETALES rows: %d", count)
	}
}
