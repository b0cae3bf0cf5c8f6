package alerts

import "strings"

type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "none"
	}
}

// Classifier maps free text to a risk level. Kept behind an interface so the
// keyword heuristic can later be swapped for a real classifier without
// touching call sites.
type Classifier interface {
	Classify(text string) RiskLevel
}

// KeywordClassifier does literal lowercase substring matching against two
// fixed tiers. No tokenization, stemming or negation handling ("no quiero
// morirme" still matches "morirme"); false positives and negatives are
// expected and accepted.
type KeywordClassifier struct {
	Critical []string
	High     []string
}

var _ Classifier = (*KeywordClassifier)(nil)

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		Critical: []string{
			"morirme",
			"matarme",
			"quitarme la vida",
			"suicidarme",
			"no quiero vivir",
			"hacerme daño",
			"desaparecer para siempre",
		},
		High: []string{
			"nadie me quiere",
			"me odio",
			"no sirvo para nada",
			"estoy solo",
			"estoy sola",
			"quiero desaparecer",
			"me hacen bullying",
			"no puedo más",
		},
	}
}

func (c *KeywordClassifier) Classify(text string) RiskLevel {
	t := strings.ToLower(text)
	for _, kw := range c.Critical {
		if strings.Contains(t, kw) {
			return RiskCritical
		}
	}
	for _, kw := range c.High {
		if strings.Contains(t, kw) {
			return RiskHigh
		}
	}
	return RiskNone
}

// EmergencyContacts is surfaced to the client when a critical-tier match
// blocks a submission.
var EmergencyContacts = []string{
	"Salud Responde: 600 360 7777",
	"Línea Libre (CPJ): 1515",
}
