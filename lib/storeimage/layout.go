package storeimage

// Layout constants, in pixels. The header zone is the fixed block at
// the top of the canvas holding the game logo and the date line.
const (
	CardWidth          = 1005
	CardHeight         = 460
	Margin             = 50
	HeaderZone         = 500
	SectionTitleHeight = 75
)

// SectionWidth is the horizontal space one non-empty category
// consumes: two card columns plus three margins.
const SectionWidth = CardWidth*2 + Margin*3

// Dimensions computes the canvas size for the given per-category
// bundle counts. An empty category consumes no width; height depends
// only on the largest category (two cards per row).
func Dimensions(counts ...int) (width, height int) {
	width = Margin
	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
		if count > 0 {
			width += SectionWidth
		}
	}

	rows := (max + 1) / 2
	height = HeaderZone + SectionTitleHeight + Margin +
		(CardHeight+Margin)*rows + Margin

	return width, height
}

// cardPosition returns the top-left corner of card i (row-major, two
// per row) within the section starting at sectionX.
func cardPosition(sectionX, i int) (x, y int) {
	x = sectionX + Margin + (i%2)*(CardWidth+Margin)
	y = HeaderZone + SectionTitleHeight + Margin + (i/2)*(CardHeight+Margin)
	return x, y
}
