package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// Matching constants.
const (
	DefaultMatchLimit = 5
	MatchThreshold    = 35
	MaxMatchScore     = 100
)

// Per-factor points.
const (
	nameWeight          = 50
	nameMinSimilarity   = 0.3
	surnameBonus        = 25
	surnameMinLength    = 3
	countryPoints       = 15
	regionPoints        = 5
	bioHighPoints       = 15
	bioLowPoints        = 8
	bioHighSimilarity   = 0.3
	bioLowSimilarity    = 0.15
	firstTokenWeight    = 0.3
	lastTokenWeight     = 0.7
	daysPerYear         = 365.25
	highlySimilarNames  = 0.9
	similarNames        = 0.7
	timelineLongYears   = 40
	timelineMediumYears = 20
	timelineShortYears  = 5
)

// Birth-year distance bands, checked in order.
var ageBands = []struct {
	maxDiff int
	points  int
}{
	{0, 25},
	{2, 22},
	{5, 18},
	{15, 12},
	{30, 6},
}

// bioStopWords are dropped before comparing biographies.
var bioStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "was": {}, "were": {},
	"is": {}, "are": {}, "be": {}, "been": {}, "being": {}, "have": {},
	"has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {},
}

// Match is a candidate memorial that cleared the threshold.
type Match struct {
	Memorial *entities.Memorial `json:"memorial"`
	Score    int                `json:"score"`
	Reasons  []string           `json:"reasons"`
}

// MatchingService proposes likely family connections for a memorial.
type MatchingService struct {
	store  ports.GraphStore
	logger *slog.Logger
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(store ports.GraphStore, logger *slog.Logger) *MatchingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchingService{store: store, logger: logger}
}

// FindMatches scores every eligible candidate against memorialID and returns
// the best ones, highest score first with candidate ID breaking ties.
// Candidates are approved memorials by other creators that are neither
// connected to the memorial by any edge nor already suggested for it.
// A limit <= 0 uses DefaultMatchLimit. It never writes to the store.
func (s *MatchingService) FindMatches(ctx context.Context, memorialID string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	memorial, err := s.store.FindMemorialByID(ctx, memorialID)
	if err != nil {
		return nil, fmt.Errorf("finding memorial: %w", err)
	}
	if memorial == nil {
		return nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, memorialID)
	}
	if !memorial.Approved {
		return nil, fmt.Errorf("%w: memorial %s is not approved", entities.ErrInvalidReference, memorialID)
	}

	exclude, err := s.excludedIDs(ctx, memorial.ID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.ListMemorials(ctx, ports.MemorialFilter{
		ApprovedOnly:   true,
		ExcludeCreator: memorial.CreatedBy,
		ExcludeIDs:     exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	matches := make([]Match, 0)
	for _, c := range candidates {
		// Same-creator and self pairs never match, whatever the store returned.
		if c.ID == memorial.ID || (memorial.CreatedBy != "" && c.CreatedBy == memorial.CreatedBy) {
			continue
		}
		score, reasons := ScorePair(memorial, c)
		if score >= MatchThreshold {
			matches = append(matches, Match{Memorial: c, Score: score, Reasons: reasons})
		}
	}
	matchCandidatesScored.Add(float64(len(candidates)))
	matchesFound.Add(float64(len(matches)))

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Memorial.ID < matches[j].Memorial.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug("scored match candidates",
		"memorial_id", memorialID,
		"candidates", len(candidates),
		"matches", len(matches),
	)
	return matches, nil
}

// excludedIDs returns the memorial itself, everything connected to it by an
// edge of any status, and everything already suggested for it.
func (s *MatchingService) excludedIDs(ctx context.Context, memorialID string) ([]string, error) {
	rels, err := s.store.FindRelationshipsByMemorial(ctx, memorialID, "")
	if err != nil {
		return nil, fmt.Errorf("finding relationships: %w", err)
	}
	suggestions, err := s.store.FindSuggestionsByMemorial(ctx, memorialID, "")
	if err != nil {
		return nil, fmt.Errorf("finding suggestions: %w", err)
	}

	seen := map[string]bool{memorialID: true}
	ids := []string{memorialID}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range rels {
		add(rels[i].Other(memorialID))
	}
	for i := range suggestions {
		add(suggestions[i].SuggestedMemorialID)
	}
	return ids, nil
}

// ScorePair scores candidate against memorial. The total is capped at
// MaxMatchScore; reasons follow factor order.
func ScorePair(memorial, candidate *entities.Memorial) (int, []string) {
	score := 0
	reasons := make([]string, 0, 6)

	if sim := nameSimilarity(memorial.FullName, candidate.FullName); sim > nameMinSimilarity {
		score += int(math.Round(sim * nameWeight))
		pct := int(sim * 100)
		switch {
		case sim > highlySimilarNames:
			reasons = append(reasons, fmt.Sprintf("Highly similar names (%d%%)", pct))
		case sim > similarNames:
			reasons = append(reasons, fmt.Sprintf("Similar names (%d%%)", pct))
		default:
			reasons = append(reasons, fmt.Sprintf("Partial name match (%d%%)", pct))
		}
	}

	if sameSurname(memorial.FullName, candidate.FullName) {
		score += surnameBonus
		reasons = append(reasons, "Same family surname")
	}

	if pts := geographyScore(memorial, candidate); pts > 0 {
		score += pts
		if pts > countryPoints {
			reasons = append(reasons, fmt.Sprintf("Both from %s, %s", candidate.Region, candidate.Country))
		} else {
			reasons = append(reasons, fmt.Sprintf("Both from %s", candidate.Country))
		}
	}

	if memorial.DateOfBirth != nil && candidate.DateOfBirth != nil {
		diff := abs(memorial.BirthYear() - candidate.BirthYear())
		if pts := ageScore(diff); pts > 0 {
			score += pts
			reasons = append(reasons, ageReason(diff))
		}
	}

	if memorial.HasLifespan() && candidate.HasLifespan() {
		if years, ok := overlapYears(
			*memorial.DateOfBirth, *memorial.DateOfDeath,
			*candidate.DateOfBirth, *candidate.DateOfDeath,
		); ok {
			score += timelineScore(years)
			reasons = append(reasons, fmt.Sprintf("Lived during overlapping periods (%d years)", int(years)))
		}
	}

	if pts := bioScore(memorial.Biography, candidate.Biography); pts > 0 {
		score += pts
		reasons = append(reasons, "Similar life stories")
	}

	return min(score, MaxMatchScore), reasons
}

// nameSimilarity is the larger of the whole-name ratio and a token ratio
// weighting the last token over the first.
func nameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	whole := ratio(a, b)
	partsA, partsB := strings.Fields(a), strings.Fields(b)
	if len(partsA) == 0 || len(partsB) == 0 {
		return whole
	}
	first := ratio(partsA[0], partsB[0])
	last := ratio(partsA[len(partsA)-1], partsB[len(partsB)-1])
	return math.Max(whole, firstTokenWeight*first+lastTokenWeight*last)
}

// ratio is difflib's SequenceMatcher ratio over characters.
func ratio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

func lastToken(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func sameSurname(a, b string) bool {
	last := lastToken(a)
	return utf8.RuneCountInString(last) >= surnameMinLength && last == lastToken(b)
}

func geographyScore(a, b *entities.Memorial) int {
	if a.Country == "" || !strings.EqualFold(a.Country, b.Country) {
		return 0
	}
	if a.Region != "" && strings.EqualFold(a.Region, b.Region) {
		return countryPoints + regionPoints
	}
	return countryPoints
}

func ageScore(diff int) int {
	for _, band := range ageBands {
		if diff <= band.maxDiff {
			return band.points
		}
	}
	return 0
}

func ageReason(diff int) string {
	switch {
	case diff == 0:
		return "Born in the same year"
	case diff == 1:
		return "Born a year apart"
	case diff <= 5:
		return fmt.Sprintf("Born %d years apart", diff)
	case diff <= 15:
		return "Likely parent-child generation"
	default:
		return "Likely grandparent generation"
	}
}

// overlapYears returns the length of the intersection of two lifespans in
// years. ok is false when they do not intersect.
func overlapYears(birthA, deathA, birthB, deathB time.Time) (float64, bool) {
	if birthA.After(deathB) || birthB.After(deathA) {
		return 0, false
	}
	start := birthA
	if birthB.After(start) {
		start = birthB
	}
	end := deathA
	if deathB.Before(end) {
		end = deathB
	}
	days := float64(end.Unix()-start.Unix()) / (24 * 60 * 60)
	return days / daysPerYear, true
}

func timelineScore(years float64) int {
	switch {
	case years > timelineLongYears:
		return 15
	case years > timelineMediumYears:
		return 12
	case years > timelineShortYears:
		return 8
	default:
		return 3
	}
}

func bioScore(a, b string) int {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	sim := jaccard(bioTokens(a), bioTokens(b))
	switch {
	case sim > bioHighSimilarity:
		return bioHighPoints
	case sim > bioLowSimilarity:
		return bioLowPoints
	default:
		return 0
	}
}

func bioTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, stop := bioStopWords[w]; !stop {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
