package stroke

import (
	"math"

	"ChanSentinel/internal/model"
)

// BuildSegments groups strokes into segments. A reversing stroke starts a
// new segment only when it breaks the running extreme by more than
// SegmentBreakRatio; otherwise it is folded in as a pullback. Fewer than
// three strokes yields nothing.
func (b *Builder) BuildSegments(strokes []model.Stroke, _ []model.OHLCV) []model.Segment {
	if len(strokes) < 3 {
		return nil
	}
	var segments []model.Segment
	run := []model.Stroke{strokes[0]}
	dir := strokes[0].Direction

	for _, s := range strokes[1:] {
		if s.Direction == dir {
			run = append(run, s)
			continue
		}
		if b.breaksSegment(run, dir, s) {
			segments = append(segments, newSegment(run))
			run = []model.Stroke{s}
			dir = s.Direction
			continue
		}
		run = append(run, s)
	}
	return append(segments, newSegment(run))
}

// breaksSegment compares the reversing stroke's end against the run's
// extreme: the highest end of an up run, the lowest start of a down run.
func (b *Builder) breaksSegment(run []model.Stroke, dir model.Direction, next model.Stroke) bool {
	if len(run) == 0 {
		return true
	}
	if dir == model.DirectionUp {
		extreme := math.Inf(-1)
		for _, s := range run {
			extreme = math.Max(extreme, s.End.Price)
		}
		if extreme <= 0 {
			return false
		}
		return (extreme-next.End.Price)/extreme > b.cfg.SegmentBreakRatio
	}
	extreme := math.Inf(1)
	for _, s := range run {
		extreme = math.Min(extreme, s.Start.Price)
	}
	if extreme <= 0 {
		return false
	}
	return (next.End.Price-extreme)/extreme > b.cfg.SegmentBreakRatio
}

// newSegment takes the dominant direction by stroke count (ties go down).
// The end price is the furthest end reached by a dominant-direction stroke.
func newSegment(strokes []model.Stroke) model.Segment {
	up := 0
	for _, s := range strokes {
		if s.Direction == model.DirectionUp {
			up++
		}
	}
	dir := model.DirectionDown
	if up > len(strokes)-up {
		dir = model.DirectionUp
	}

	start := strokes[0].Start.Price
	var end float64
	if dir == model.DirectionUp {
		end = math.Inf(-1)
	} else {
		end = math.Inf(1)
	}
	for _, s := range strokes {
		if s.Direction != dir {
			continue
		}
		if dir == model.DirectionUp {
			end = math.Max(end, s.End.Price)
		} else {
			end = math.Min(end, s.End.Price)
		}
	}

	owned := make([]model.Stroke, len(strokes))
	copy(owned, strokes)
	return model.Segment{
		Strokes:    owned,
		Direction:  dir,
		StartPrice: start,
		EndPrice:   end,
		PriceRange: math.Abs(end - start),
		StartTime:  strokes[0].StartTime,
		EndTime:    strokes[len(strokes)-1].EndTime,
	}
}
