package query

// CategoryMap maps well-known phrases to arXiv taxonomy codes.
// Lookups are exact first, then fuzzy against the keys (see similarity.go).
var CategoryMap = map[string]string{
	"language model":         "cs.CL",
	"large language model":   "cs.CL",
	"reinforcement learning": "cs.LG",
	"machine learning":       "cs.LG",
	"graph neural network":   "cs.LG",
	"quantum computing":      "quant-ph",
	"quantum":                "quant-ph",
	"topology":               "math.GN",
	"algebraic topology":     "math.AT",
	"particle physics":       "hep-ph",
	"astrophysics":           "astro-ph",
}

// SynonymMap expands common abbreviations so they participate in the search.
// Expansion is additive; the original phrase always stays in the set.
var SynonymMap = map[string]string{
	"rl":                  "reinforcement learning",
	"gpt":                 "large language model",
	"llm":                 "large language model",
	"gans":                "generative adversarial network",
	"adversarial network": "generative adversarial network",
	"gnn":                 "graph neural network",
}
