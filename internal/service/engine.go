package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"trustnet/internal/lexicon"
	"trustnet/internal/model"
)

// ContentHash is the cache identity of a piece of text: the first 16 hex
// characters of its SHA-256 digest.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// VerificationCard is the user-facing summary of a verdict.
type VerificationCard struct {
	CredibilityScore     float64                       `json:"credibility_score"`
	Rating               string                        `json:"rating"`
	Confidence           float64                       `json:"confidence"`
	SourceAnalysis       map[string]any                `json:"source_analysis"`
	AlternativeHeadlines []string                      `json:"alternative_headlines"`
	NeutralSummary       string                        `json:"neutral_summary"`
	ManipulationAlerts   []model.ManipulationIndicator `json:"manipulation_alerts"`
	EducationTips        []map[string]string           `json:"education_tips"`
}

var defaultSuggestions = []string{
	"Verify claims through multiple sources",
	"Check for emotional manipulation tactics",
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// quickAnalysis scores surface features of content without the deep patterns.
func quickAnalysis(lex *lexicon.Lexicon, content string, now time.Time) model.QuickAnalysis {
	emotional := lexicon.CountKeywords(content, lex.QuickEmotionalKeywords) > 0
	sources := strings.Count(content, "http")

	var techniques []model.ManipulationTechnique
	var flags []string
	trust := 0.7
	if emotional {
		trust -= 0.2
		flags = append(flags, "Emotional manipulation detected")
		techniques = append(techniques, model.ManipulationTechnique{
			TechniqueID:     "emotional_manipulation",
			TechniqueName:   "Emotional Manipulation",
			ConfidenceScore: 0.75,
			Description:     "Content uses emotionally charged language",
			Indicators:      lexicon.MatchedKeywords(content, lex.QuickEmotionalKeywords),
			Severity:        model.SeverityMedium,
		})
	}
	if sources == 0 {
		trust -= 0.1
		flags = append(flags, "No sources provided")
	}
	if techniques == nil {
		techniques = []model.ManipulationTechnique{}
	}
	if flags == nil {
		flags = []string{}
	}
	return model.QuickAnalysis{
		ContentHash: ContentHash(content),
		QuickFindings: model.QuickFindings{
			ContentLength:       len(strings.Fields(content)),
			EmotionalIndicators: emotional,
			SourceMentions:      sources,
			UrgencyLanguage:     emotional,
		},
		ManipulationTechniques:  techniques,
		TrustScore:              round(clamp01(trust), 2),
		ConfidenceScore:         0.6,
		RedFlags:                flags,
		VerificationSuggestions: defaultSuggestions,
		AnalyzedAt:              now,
	}
}

// detectTechniques scores every keyword technique that matches content, plus
// the fixed-confidence patterns when deep is set.
func detectTechniques(lex *lexicon.Lexicon, content string, deep bool) []model.ManipulationTechnique {
	out := []model.ManipulationTechnique{}
	for _, t := range lex.Techniques {
		n := lexicon.CountKeywords(content, t.Keywords)
		if n == 0 {
			continue
		}
		out = append(out, model.ManipulationTechnique{
			TechniqueID:     t.ID,
			TechniqueName:   t.Name,
			ConfidenceScore: round(t.Confidence(n), 4),
			Description:     t.Description,
			Indicators:      t.Indicators,
			Severity:        t.SeverityFor(n),
		})
	}
	if !deep {
		return out
	}
	for _, p := range lex.DeepPatterns {
		if !p.Matches(content) {
			continue
		}
		out = append(out, model.ManipulationTechnique{
			TechniqueID:     p.ID,
			TechniqueName:   p.Name,
			ConfidenceScore: p.Confidence,
			Description:     p.Description,
			Indicators:      p.Indicators,
			Severity:        p.Severity,
		})
	}
	return out
}

func maxConfidence(ts []model.ManipulationTechnique) float64 {
	var m float64
	for _, t := range ts {
		m = math.Max(m, t.ConfidenceScore)
	}
	return m
}

// trustScore turns a quick analysis into the cached trust score record.
func trustScore(q model.QuickAnalysis, techniques []model.ManipulationTechnique, now time.Time) *model.TrustScore {
	emotional, sources := 0.0, -0.1
	if q.QuickFindings.EmotionalIndicators {
		emotional = -0.2
	}
	if q.QuickFindings.SourceMentions > 0 {
		sources = 0.1
	}
	manipulation := maxConfidence(techniques)
	factors := []string{}
	if emotional != 0 {
		factors = append(factors, "emotional_language")
	}
	if q.QuickFindings.SourceMentions == 0 {
		factors = append(factors, "no_sources")
	}
	for _, t := range techniques {
		factors = append(factors, t.TechniqueID)
	}
	return &model.TrustScore{
		ContentHash:  q.ContentHash,
		OverallScore: q.TrustScore,
		Components: map[string]float64{
			"base":               0.7,
			"emotional_language": emotional,
			"source_presence":    sources,
			"manipulation":       round(manipulation, 4),
		},
		Confidence:        q.ConfidenceScore,
		Factors:           factors,
		CalculationMethod: "keyword_heuristics",
		GeneratedAt:       now,
	}
}

// assessVerdict derives the automated verdict of claim.
//
// The misinformation probability blends distrust with the strongest technique:
// 0.5*(1-trust) + 0.5*max technique confidence. Confidence grows with the
// distance of that probability from 0.5.
func assessVerdict(claim *model.Claim, q model.QuickAnalysis, techniques []model.ManipulationTechnique, evidenceIDs []string, modelVersion string) *model.Verdict {
	manipulation := maxConfidence(techniques)
	misinfo := clamp01(0.5*(1-q.TrustScore) + 0.5*manipulation)

	var rating string
	switch {
	case misinfo >= 0.6:
		rating = model.RatingFalse
	case misinfo <= 0.3:
		rating = model.RatingTrue
	case len(claim.URLs) == 0:
		rating = model.RatingInsufficientEvidence
	default:
		rating = model.RatingMixture
	}

	indicators := make([]model.ManipulationIndicator, 0, len(techniques))
	spam := 0.0
	for _, t := range techniques {
		indicators = append(indicators, model.ManipulationIndicator{
			Type:        t.TechniqueID,
			Severity:    t.Severity,
			Description: t.Description,
			Confidence:  t.ConfidenceScore,
		})
		if t.TechniqueID == "false_urgency" {
			spam = t.ConfidenceScore
		}
	}

	if evidenceIDs == nil {
		evidenceIDs = []string{}
	}
	return &model.Verdict{
		ClaimID:                claim.ID,
		Rating:                 rating,
		ConfidenceScore:        round(0.5+math.Abs(misinfo-0.5), 4),
		Rationale:              rationale(rating, techniques, q),
		EvidenceIDs:            evidenceIDs,
		FactCheckMatches:       []map[string]any{},
		EducationTips:          educationTips(techniques),
		ManipulationIndicators: indicators,
		DetectionScores: &model.DetectionScores{
			MisinformationProbability: round(misinfo, 4),
			SpamScore:                 spam,
			ManipulationScore:         round(manipulation, 4),
		},
		ModelVersion: modelVersion,
	}
}

func rationale(rating string, techniques []model.ManipulationTechnique, q model.QuickAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated assessment: %s.", rating)
	if len(techniques) > 0 {
		names := make([]string, 0, len(techniques))
		for _, t := range techniques {
			names = append(names, t.TechniqueName)
		}
		fmt.Fprintf(&b, " Detected techniques: %s.", strings.Join(names, ", "))
	} else {
		b.WriteString(" No manipulation techniques detected.")
	}
	if q.QuickFindings.SourceMentions == 0 {
		b.WriteString(" The content cites no sources.")
	}
	return b.String()
}

func educationTips(techniques []model.ManipulationTechnique) []string {
	tips := []string{}
	seen := map[string]bool{}
	for _, t := range techniques {
		if seen[t.TechniqueID] {
			continue
		}
		seen[t.TechniqueID] = true
		tips = append(tips, fmt.Sprintf("%s: %s", t.TechniqueName, t.Description))
	}
	return append(tips, defaultSuggestions...)
}

// buildCard renders the verification card of a verdict. evidence is the claim's evidence count.
func buildCard(claim *model.Claim, v *model.Verdict, evidence int) *VerificationCard {
	credibility := 1 - v.ConfidenceScore
	if v.DetectionScores != nil {
		credibility = 1 - v.DetectionScores.MisinformationProbability
	}
	tips := make([]map[string]string, 0, len(v.EducationTips))
	for _, t := range v.EducationTips {
		tips = append(tips, map[string]string{"tip": t})
	}
	alerts := v.ManipulationIndicators
	if alerts == nil {
		alerts = []model.ManipulationIndicator{}
	}
	card := &VerificationCard{
		CredibilityScore: round(clamp01(credibility), 4),
		Rating:           v.Rating,
		Confidence:       v.ConfidenceScore,
		SourceAnalysis: map[string]any{
			"urls_provided":  0,
			"evidence_count": evidence,
		},
		AlternativeHeadlines: []string{},
		NeutralSummary:       "The submitted content could not be loaded.",
		ManipulationAlerts:   alerts,
		EducationTips:        tips,
	}
	if claim != nil {
		card.SourceAnalysis["urls_provided"] = len(claim.URLs)
		card.NeutralSummary = "The content states: " + preview(claim.Text, 200)
		if len(v.ManipulationIndicators) > 0 {
			card.AlternativeHeadlines = append(card.AlternativeHeadlines, "Unverified claim: "+preview(claim.Text, 80))
		}
	}
	return card
}

// preview truncates s to n runes, adding an ellipsis when it was cut.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
