package alerts

import "testing"

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		name string
		text string
		want RiskLevel
	}{
		{"plain_text", "hoy fue un buen día", RiskNone},
		{"critical_phrase", "a veces pienso en quitarme la vida", RiskCritical},
		{"critical_uppercase", "NO QUIERO VIVIR", RiskCritical},
		{"high_phrase", "siento que nadie me quiere", RiskHigh},
		{"high_bullying", "me hacen bullying en el recreo", RiskHigh},
		{"critical_wins_over_high", "me odio y quiero matarme", RiskCritical},
		{"substring_no_negation_handling", "no quiero morirme, solo dormir", RiskCritical},
		{"empty", "", RiskNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.text); got != tc.want {
				t.Fatalf("Classify(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
