package screenshot

import (
	"fmt"
	"image"
)

// Region couples one semantic field name with the fixed rectangle it occupies
// on the result screen. All coordinates target the stock 1920x1080 capture of
// the in-game results layout; captures at any other resolution invalidate the
// whole table.
type Region struct {
	Name string
	Rect image.Rectangle
}

// Side prefixes used in field names.
const (
	SideAlly     = "ally"
	SideOpponent = "opponent"
)

const playersPerSide = 5

// Team score banner at the top of the screen.
const (
	scoreTop    = 84
	scoreHeight = 62
	scoreWidth  = 150

	allyScoreLeft     = 702
	opponentScoreLeft = 1068
)

// Body grid: five player rows per side, each with a name cell and the
// scored/kills/assists cells of the combined stat strip.
const (
	bodyTop       = 232
	bodyRowHeight = 112
	cellHeight    = 36

	allyBodyLeft     = 252
	opponentBodyLeft = 1012

	nameWidth     = 228
	scoredOffset  = 238
	killsOffset   = 330
	assistsOffset = 408
	statWidth     = 72
)

// Totals grid: the per-player total column sits apart from the stat strip and
// is vertically offset from the body rows.
const (
	totalsTop         = 246
	allyTotalLeft     = 560
	opponentTotalLeft = 1320
	totalWidth        = 96
)

// fieldBounds is the playing-field bounding box the preview image is cropped
// to before being returned to the operator.
var fieldBounds = image.Rect(180, 64, 1740, 820)

var regionTable = buildRegions()

// Regions returns the full named-region table. It is built once; every
// extraction yields exactly one map key per entry.
func Regions() []Region {
	return regionTable
}

func buildRegions() []Region {
	regs := make([]Region, 0, 2+2*playersPerSide*5)
	regs = append(regs,
		Region{Name: SideAlly + "_score", Rect: image.Rect(allyScoreLeft, scoreTop, allyScoreLeft+scoreWidth, scoreTop+scoreHeight)},
		Region{Name: SideOpponent + "_score", Rect: image.Rect(opponentScoreLeft, scoreTop, opponentScoreLeft+scoreWidth, scoreTop+scoreHeight)},
	)
	sides := []struct {
		name   string
		bodyX  int
		totalX int
	}{
		{SideAlly, allyBodyLeft, allyTotalLeft},
		{SideOpponent, opponentBodyLeft, opponentTotalLeft},
	}
	for _, side := range sides {
		for row := 0; row < playersPerSide; row++ {
			n := row + 1
			y := bodyTop + row*bodyRowHeight
			regs = append(regs,
				Region{
					Name: fmt.Sprintf("%s_%d", side.name, n),
					Rect: image.Rect(side.bodyX, y, side.bodyX+nameWidth, y+cellHeight),
				},
				Region{
					Name: fmt.Sprintf("%s_%d_scored", side.name, n),
					Rect: image.Rect(side.bodyX+scoredOffset, y, side.bodyX+scoredOffset+statWidth, y+cellHeight),
				},
				Region{
					Name: fmt.Sprintf("%s_%d_kills", side.name, n),
					Rect: image.Rect(side.bodyX+killsOffset, y, side.bodyX+killsOffset+statWidth, y+cellHeight),
				},
				Region{
					Name: fmt.Sprintf("%s_%d_assists", side.name, n),
					Rect: image.Rect(side.bodyX+assistsOffset, y, side.bodyX+assistsOffset+statWidth, y+cellHeight),
				},
			)
			ty := totalsTop + row*bodyRowHeight
			regs = append(regs, Region{
				Name: fmt.Sprintf("%s_%d_total", side.name, n),
				Rect: image.Rect(side.totalX, ty, side.totalX+totalWidth, ty+cellHeight),
			})
		}
	}
	return regs
}
