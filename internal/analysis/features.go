package analysis

// AudioFeatures is the vocal delivery profile produced by the audio analyzer.
type AudioFeatures struct {
	Transcript   string       `json:"transcript"`
	Duration     float64      `json:"duration"`
	SpeakingRate SpeakingRate `json:"speaking_rate"`
	Pitch        Pitch        `json:"pitch"`
	Volume       Volume       `json:"volume"`
	Pauses       Pauses       `json:"pauses"`
	Fillers      Fillers      `json:"fillers"`
	Clarity      Clarity      `json:"clarity"`
	Confidence   Confidence   `json:"confidence"`
}

type SpeakingRate struct {
	Score       float64 `json:"score"`
	WPM         float64 `json:"wpm"`
	Description string  `json:"description,omitempty"`
}

type Pitch struct {
	PitchScore   float64 `json:"pitch_score"`
	VarietyScore float64 `json:"variety_score"`
	MeanPitchHz  float64 `json:"mean_pitch_hz,omitempty"`
	PitchStd     float64 `json:"pitch_std,omitempty"`
}

type Volume struct {
	Score  float64 `json:"score"`
	MeanDB float64 `json:"mean_db,omitempty"`
}

type Pauses struct {
	Score     float64 `json:"score"`
	PerMinute float64 `json:"per_minute,omitempty"`
}

type Fillers struct {
	Score       float64 `json:"score"`
	Per100Words float64 `json:"per_100_words,omitempty"`
}

type Clarity struct {
	Score            float64 `json:"score"`
	WordsPerSentence float64 `json:"words_per_sentence,omitempty"`
}

type Confidence struct {
	Score float64 `json:"score"`
	Ratio float64 `json:"ratio,omitempty"`
}

// ParameterScores returns the eight vocal parameter scores feeding the
// communication bucket.
func (f *AudioFeatures) ParameterScores() []float64 {
	return []float64{
		f.SpeakingRate.Score,
		f.Pitch.PitchScore,
		f.Pitch.VarietyScore,
		f.Volume.Score,
		f.Pauses.Score,
		f.Fillers.Score,
		f.Clarity.Score,
		f.Confidence.Score,
	}
}

// VisualFeatures is the body language profile produced by the visual analyzer.
type VisualFeatures struct {
	Posture         Posture         `json:"posture"`
	Expansiveness   Expansiveness   `json:"expansiveness"`
	EyeContact      EyeContact      `json:"eye_contact"`
	Expressions     Expressions     `json:"expressions"`
	Gestures        Gestures        `json:"gestures"`
	FirstImpression FirstImpression `json:"first_impression"`
}

type Posture struct {
	Score        float64 `json:"score"`
	UprightRatio float64 `json:"upright_ratio,omitempty"`
}

type Expansiveness struct {
	Score float64 `json:"score"`
}

type EyeContact struct {
	Score float64 `json:"score"`
}

type Expressions struct {
	Score float64 `json:"score"`
}

type Gestures struct {
	Score float64 `json:"score"`
}

type FirstImpression struct {
	Score float64 `json:"score"`
}

// ParameterScores returns the six nonverbal parameter scores feeding the
// appearance bucket.
func (f *VisualFeatures) ParameterScores() []float64 {
	return []float64{
		f.Posture.Score,
		f.Expansiveness.Score,
		f.EyeContact.Score,
		f.Expressions.Score,
		f.Gestures.Score,
		f.FirstImpression.Score,
	}
}

// NarrativeFeatures is the storytelling profile derived from the transcript.
type NarrativeFeatures struct {
	HasStory           bool               `json:"has_story"`
	StoryCount         int                `json:"story_count"`
	NarrativeStructure NarrativeStructure `json:"narrative_structure"`
	CognitiveEase      CognitiveEase      `json:"cognitive_ease"`
	SelfDisclosure     SelfDisclosure     `json:"self_disclosure"`
	Memorability       Memorability       `json:"memorability"`
	StoryMetrics       StoryMetrics       `json:"story_metrics"`
	StoryPlacement     StoryPlacement     `json:"story_placement"`
}

type NarrativeStructure struct {
	Score             float64 `json:"score"`
	StructureComplete bool    `json:"structure_complete,omitempty"`
}

type CognitiveEase struct {
	Score       float64 `json:"score"`
	FleschScore float64 `json:"flesch_score,omitempty"`
}

type SelfDisclosure struct {
	Score float64 `json:"score"`
}

type Memorability struct {
	Score float64 `json:"score"`
}

type StoryMetrics struct {
	Score float64 `json:"score"`
}

type StoryPlacement struct {
	Score float64 `json:"score"`
}

// ParameterScores returns the six storytelling parameter scores, or nil when
// the transcript contains no story.
func (f *NarrativeFeatures) ParameterScores() []float64 {
	if !f.HasStory {
		return nil
	}
	return []float64{
		f.NarrativeStructure.Score,
		f.CognitiveEase.Score,
		f.SelfDisclosure.Score,
		f.Memorability.Score,
		f.StoryMetrics.Score,
		f.StoryPlacement.Score,
	}
}
