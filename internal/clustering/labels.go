package clustering

// Mood labels assigned to clusters. Every clustered track carries exactly
// one of these.
const (
	LabelHype       = "High-Energy Hype"
	LabelMelancholy = "Melancholy / Low Energy"
	LabelAcoustic   = "Chill / Acoustic"
	LabelDance      = "Dance Party"
	LabelBalanced   = "Balanced / Mixed"
)

// Labels lists every mood label in decision-table priority order.
var Labels = []string{
	LabelHype,
	LabelMelancholy,
	LabelAcoustic,
	LabelDance,
	LabelBalanced,
}

// labelRule is one row of the decision table.
type labelRule struct {
	label   string
	matches func(c map[string]float64) bool
}

// labelTable maps centroid characteristics to mood labels. Rules are
// evaluated top-down and the first match wins, which is also the tie-break
// for centroids matching several rows: hype beats melancholy beats acoustic
// beats dance beats the balanced fallback.
var labelTable = []labelRule{
	{LabelHype, func(c map[string]float64) bool {
		return c["energy"] > 0.7 && c["valence"] > 0.6
	}},
	{LabelMelancholy, func(c map[string]float64) bool {
		return c["energy"] < 0.4 && c["valence"] < 0.4
	}},
	{LabelAcoustic, func(c map[string]float64) bool {
		return c["acousticness"] > 0.5
	}},
	{LabelDance, func(c map[string]float64) bool {
		return c["danceability"] > 0.7
	}},
	{LabelBalanced, func(c map[string]float64) bool {
		return true
	}},
}

// Label assigns a qualitative mood label to a centroid of raw (unscaled)
// feature means.
func Label(centroid map[string]float64) string {
	for _, rule := range labelTable {
		if rule.matches(centroid) {
			return rule.label
		}
	}
	return LabelBalanced
}
