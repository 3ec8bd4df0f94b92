package segment

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shortsmith/internal/timecode"
)

const (
	// MaxWindowSeconds bounds heatmap and chapter windows.
	MaxWindowSeconds = 60.0
	// DefaultLengthSeconds is the smart default window after the intro.
	DefaultLengthSeconds = 45.0
	// IntroFraction is the share of the video skipped as intro.
	IntroFraction = 0.1
)

// DefaultKeywords score chapter titles; matching is a case-insensitive substring test.
var DefaultKeywords = []string{
	"highlight", "best", "amazing", "epic", "wow", "incredible",
	"tutorial", "how to", "tip", "trick", "secret", "reveal",
}

// Strategy proposes a segment or declines so the next strategy can run.
type Strategy interface {
	Method() Method
	Select(in Input) (Segment, bool)
}

// Chain runs strategies in order and returns the first proposal.
type Chain []Strategy

// DefaultChain is heatmap, then chapters, then the smart default.
func DefaultChain() Chain {
	return Chain{
		HeatmapStrategy{},
		ChapterStrategy{},
		SmartDefaultStrategy{},
	}
}

// Select validates the input and returns the first strategy's proposal. When
// every strategy declines, the smart default answers, so well-formed input
// always yields a segment.
func (c Chain) Select(in Input) (Segment, error) {
	if err := in.validate(); err != nil {
		return Segment{}, err
	}
	for _, strategy := range c {
		if seg, ok := strategy.Select(in); ok {
			return seg, nil
		}
	}
	seg, _ := SmartDefaultStrategy{}.Select(in)
	return seg, nil
}

// Select runs the default chain.
func Select(in Input) (Segment, error) {
	return DefaultChain().Select(in)
}

// HeatmapStrategy centers a window on the most replayed sample.
type HeatmapStrategy struct {
	// Length is the window size; zero means MaxWindowSeconds.
	Length float64
}

func (HeatmapStrategy) Method() Method { return MethodHeatmap }

func (h HeatmapStrategy) Select(in Input) (Segment, bool) {
	peak, ok := PeakPoint(in.Heatmap)
	if !ok {
		return Segment{}, false
	}
	length := math.Min(orDefault(h.Length, MaxWindowSeconds), in.Duration)
	peakTime := clamp(peak.StartTime, 0, in.Duration)

	start := math.Max(0, peakTime-length/2)
	end := math.Min(in.Duration, start+length)
	if end >= in.Duration {
		// Keep the window full length when the peak sits near the end.
		end = in.Duration
		start = math.Max(0, end-length)
	}
	return Segment{
		Start:      start,
		End:        end,
		Method:     MethodHeatmap,
		Confidence: ConfidenceHigh,
		Reason:     "Most replayed segment detected at " + timecode.Format(peakTime),
	}, true
}

// PeakPoint returns the first point holding the maximum value, scanning in
// input order. NaN values are ignored.
func PeakPoint(points []HeatmapPoint) (HeatmapPoint, bool) {
	var (
		best  HeatmapPoint
		found bool
	)
	for _, point := range points {
		if math.IsNaN(point.Value) {
			continue
		}
		if !found || point.Value > best.Value {
			best = point
			found = true
		}
	}
	return best, found
}

// ChapterStrategy picks the chapter whose title hits the most keywords.
type ChapterStrategy struct {
	// Keywords overrides DefaultKeywords when non-empty.
	Keywords []string
	// Length is the window size; zero means MaxWindowSeconds.
	Length float64
}

func (ChapterStrategy) Method() Method { return MethodChapters }

func (c ChapterStrategy) Select(in Input) (Segment, bool) {
	chapter, ok := c.BestChapter(in.Chapters)
	if !ok {
		return Segment{}, false
	}
	start := math.Max(0, chapter.StartTime)
	if start >= in.Duration {
		return Segment{}, false
	}
	end := math.Min(start+orDefault(c.Length, MaxWindowSeconds), in.Duration)
	title := chapter.Title
	if strings.TrimSpace(title) == "" {
		title = "Unknown"
	}
	return Segment{
		Start:      start,
		End:        end,
		Method:     MethodChapters,
		Confidence: ConfidenceMedium,
		Reason:     "Selected chapter: " + title,
	}, true
}

// BestChapter returns the strictly highest scoring chapter, the first one on
// ties, or the first chapter when nothing scores.
func (c ChapterStrategy) BestChapter(chapters []Chapter) (Chapter, bool) {
	if len(chapters) == 0 {
		return Chapter{}, false
	}
	keywords := c.keywords()
	best := chapters[0]
	bestScore := 0
	for _, chapter := range chapters {
		if score := ScoreTitle(chapter.Title, keywords); score > bestScore {
			best = chapter
			bestScore = score
		}
	}
	return best, true
}

func (c ChapterStrategy) keywords() []string {
	if len(c.Keywords) > 0 {
		return c.Keywords
	}
	return DefaultKeywords
}

// ScoreTitle counts how many keywords appear in the title, ignoring case.
func ScoreTitle(title string, keywords []string) int {
	folder := cases.Lower(language.Und)
	lowered := folder.String(title)
	score := 0
	for _, keyword := range keywords {
		keyword = folder.String(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lowered, keyword) {
			score++
		}
	}
	return score
}

// SmartDefaultStrategy skips the intro and takes a fixed-length window. It
// never declines.
type SmartDefaultStrategy struct {
	// ShortThreshold is the duration at or below which the whole video is used.
	ShortThreshold float64
	// Length is the window size after the intro.
	Length float64
	// IntroFraction is the share of the duration skipped.
	IntroFraction float64
}

func (SmartDefaultStrategy) Method() Method { return MethodSmartDefault }

func (d SmartDefaultStrategy) Select(in Input) (Segment, bool) {
	if in.Duration <= orDefault(d.ShortThreshold, MaxWindowSeconds) {
		return Segment{
			Start:      0,
			End:        in.Duration,
			Method:     MethodSmartDefault,
			Confidence: ConfidenceLow,
			Reason:     "Video is already short enough",
		}, true
	}
	skip := math.Floor(in.Duration * orDefault(d.IntroFraction, IntroFraction))
	length := math.Min(orDefault(d.Length, DefaultLengthSeconds), in.Duration-skip)
	return Segment{
		Start:      skip,
		End:        skip + length,
		Method:     MethodSmartDefault,
		Confidence: ConfidenceMedium,
		Reason:     "Selected segment after intro with optimal length",
	}, true
}

func orDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
