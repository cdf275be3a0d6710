package gameimport

import (
	"strings"
	"testing"
	"time"
)

func TestSpriteToken(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example.com/sprites/SquarePikachu.png": "pikachu",
		"sprites/Square_Venusaur.jpg":                       "venusaur",
		"SquareMr.Mime.png":                                 "mr.mime",
		"Square-Gengar.png":                                 "gengar",
		"Eldegoss.png":                                      "eldegoss",
	}
	for in, want := range cases {
		if got := spriteToken(in); got != want {
			t.Errorf("spriteToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTeamRow(t *testing.T) {
	tr, err := parseTeamRow([]string{"Team", "Won", "450"}, 2)
	if err != nil || !tr.won || tr.score != 450 {
		t.Fatalf("got %+v err=%v", tr, err)
	}
	tr, err = parseTeamRow([]string{"Team", "lost", "320"}, 3)
	if err != nil || tr.won {
		t.Fatalf("lower-case loss not detected: %+v err=%v", tr, err)
	}
	if _, err = parseTeamRow([]string{"Team", "Won", "45x"}, 4); err == nil {
		t.Fatal("malformed score accepted")
	}
	if _, err = parseTeamRow([]string{"Team", "Won"}, 5); err == nil {
		t.Fatal("short row accepted")
	}
}

func TestParsePlayerRow(t *testing.T) {
	pr, err := parsePlayerRow([]string{"Noctule", "SquarePikachu.png", "42", "3|7|45"}, 4)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pr.pseudo != "Noctule" || pr.scored != 42 || pr.kills != 3 || pr.assists != 7 {
		t.Fatalf("wrong fields: %+v", pr)
	}
	if _, err = parsePlayerRow([]string{"Noctule", "x.png", "42", "3"}, 5); err == nil {
		t.Fatal("compound cell without separator accepted")
	}
	if _, err = parsePlayerRow([]string{"", "x.png", "42", "3|7|45"}, 6); err == nil {
		t.Fatal("empty pseudo accepted")
	}
}

func TestParseMetaRow(t *testing.T) {
	m, err := parseMetaRow([]string{"W", "", "21-09-2021 20:30"}, 28)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !m.won || m.forfeit {
		t.Fatalf("wrong flags: %+v", m)
	}
	want := time.Date(2021, 9, 21, 20, 30, 0, 0, time.UTC)
	if !m.date.Equal(want) {
		t.Fatalf("date %v, want %v", m.date, want)
	}

	m, err = parseMetaRow([]string{"Lost by forfeit", "1", "01-02-2022 10:00"}, 29)
	if err != nil || m.won || !m.forfeit {
		t.Fatalf("loss/forfeit not detected: %+v err=%v", m, err)
	}

	if _, err = parseMetaRow([]string{"W", "", "2021-09-21"}, 30); err == nil {
		t.Fatal("malformed timestamp accepted")
	}
}

func TestReadRowsStripsHeader(t *testing.T) {
	src := strings.Join([]string{
		"team,result,score",
		"Team,Won,450",
		",,",
	}, "\n")
	rows, err := ReadRows(strings.NewReader(src))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after header, got %d", len(rows))
	}
	if rows[0][1] != "Won" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
}

func TestReadRowsEmptyFile(t *testing.T) {
	if _, err := ReadRows(strings.NewReader("")); err == nil {
		t.Fatal("empty file accepted")
	}
}
