package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/lexicon"
	"trustnet/internal/model"
)

func defaultLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func TestContentHash(t *testing.T) {
	h := ContentHash("hello world")
	assert.Len(t, h, 16)
	assert.Equal(t, "b94d27b9934d3e08", h)
	assert.Equal(t, h, ContentHash("hello world"))
	assert.NotEqual(t, h, ContentHash("hello world!"))
}

func TestQuickAnalysis(t *testing.T) {
	lex := defaultLexicon(t)

	q := quickAnalysis(lex, alarmingText, fixedNow)
	assert.True(t, q.QuickFindings.EmotionalIndicators)
	assert.Equal(t, 0, q.QuickFindings.SourceMentions)
	assert.InDelta(t, 0.4, q.TrustScore, 1e-9)
	assert.Equal(t, 0.6, q.ConfidenceScore)
	assert.Equal(t, []string{"Emotional manipulation detected", "No sources provided"}, q.RedFlags)
	require.Len(t, q.ManipulationTechniques, 1)
	assert.Equal(t, []string{"shocking", "exposed"}, q.ManipulationTechniques[0].Indicators)

	q = quickAnalysis(lex, "Budget figures are published at https://example.org/budget", fixedNow)
	assert.False(t, q.QuickFindings.EmotionalIndicators)
	assert.Equal(t, 1, q.QuickFindings.SourceMentions)
	assert.InDelta(t, 0.7, q.TrustScore, 1e-9)
	assert.Empty(t, q.RedFlags)
	assert.NotNil(t, q.ManipulationTechniques)
	assert.Equal(t, 6, q.QuickFindings.ContentLength)
}

func TestQuickAnalysis_ContentLengthCountsWords(t *testing.T) {
	lex := defaultLexicon(t)

	assert.Equal(t, 4, quickAnalysis(lex, "one two three four", fixedNow).QuickFindings.ContentLength)
	assert.Equal(t, 3, quickAnalysis(lex, "  spaced\tout\n words ", fixedNow).QuickFindings.ContentLength)
	assert.Equal(t, 0, quickAnalysis(lex, "", fixedNow).QuickFindings.ContentLength)
}

func TestDetectTechniques(t *testing.T) {
	lex := defaultLexicon(t)

	got := detectTechniques(lex, alarmingText, false)
	require.Len(t, got, 2)

	assert.Equal(t, "emotional_manipulation", got[0].TechniqueID)
	assert.InDelta(t, 0.75, got[0].ConfidenceScore, 1e-9)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)

	assert.Equal(t, "false_urgency", got[1].TechniqueID)
	assert.InDelta(t, 0.6, got[1].ConfidenceScore, 1e-9)
	assert.Equal(t, model.SeverityMedium, got[1].Severity)

	assert.Empty(t, detectTechniques(lex, neutralText, true))

	text := "Either you agree or you are against us. Statistics show the truth."
	shallow := detectTechniques(lex, text, false)
	assert.Empty(t, shallow)
	deep := detectTechniques(lex, text, true)
	ids := []string{}
	for _, d := range deep {
		ids = append(ids, d.TechniqueID)
	}
	assert.Equal(t, []string{"logical_fallacy_false_dichotomy", "statistical_manipulation"}, ids)
	assert.Equal(t, 0.7, deep[0].ConfidenceScore)
}

func TestAssessVerdict(t *testing.T) {
	lex := defaultLexicon(t)

	tests := []struct {
		name       string
		text       string
		urls       []string
		rating     string
		confidence float64
	}{
		{name: "neutral content", text: neutralText, rating: model.RatingTrue, confidence: 0.8},
		{name: "uncertain without sources", text: uncertainText, rating: model.RatingInsufficientEvidence, confidence: 0.525},
		{name: "uncertain with sources", text: uncertainText, urls: []string{"https://example.org"}, rating: model.RatingMixture, confidence: 0.525},
		{name: "manipulative content", text: alarmingText, rating: model.RatingFalse, confidence: 0.675},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := &model.Claim{ID: "c1", Text: tt.text, URLs: tt.urls}
			techniques := detectTechniques(lex, tt.text, true)
			v := assessVerdict(claim, quickAnalysis(lex, tt.text, fixedNow), techniques, nil, "test-1")

			assert.Equal(t, tt.rating, v.Rating)
			assert.InDelta(t, tt.confidence, v.ConfidenceScore, 1e-9)
			assert.Equal(t, "c1", v.ClaimID)
			assert.Equal(t, "test-1", v.ModelVersion)
			assert.Len(t, v.ManipulationIndicators, len(techniques))
			assert.NotNil(t, v.EvidenceIDs)
			assert.NotEmpty(t, v.Rationale)
		})
	}
}

func TestBuildCard(t *testing.T) {
	lex := defaultLexicon(t)
	claim := &model.Claim{ID: "c1", Text: alarmingText, URLs: []string{"https://example.org"}}
	v := assessVerdict(claim, quickAnalysis(lex, alarmingText, fixedNow), detectTechniques(lex, alarmingText, true), nil, "test-1")

	card := buildCard(claim, v, 1)
	assert.Equal(t, model.RatingFalse, card.Rating)
	assert.InDelta(t, 0.325, card.CredibilityScore, 1e-9)
	assert.Equal(t, 1, card.SourceAnalysis["urls_provided"])
	assert.Equal(t, 1, card.SourceAnalysis["evidence_count"])
	assert.Len(t, card.ManipulationAlerts, 2)
	assert.Len(t, card.AlternativeHeadlines, 1)
	assert.Contains(t, card.NeutralSummary, "SHOCKING")
	assert.NotEmpty(t, card.EducationTips)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
	assert.Equal(t, "नमस...", preview("नमस्ते", 3))
}
