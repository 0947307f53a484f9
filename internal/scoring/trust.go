package scoring

// DefaultTrust is the weight for providers absent from the config table.
const DefaultTrust = 0.40

// trustTable wraps the configured provider weights with the unknown-provider
// fallback.
type trustTable struct {
	weights map[string]float64
}

func newTrustTable(weights map[string]float64) trustTable {
	return trustTable{weights: weights}
}

func (t trustTable) weight(provider string) float64 {
	if w, ok := t.weights[provider]; ok {
		return w
	}
	return DefaultTrust
}
