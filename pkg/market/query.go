// Package market searches classifieds for comparable properties of a lot.
package market

import (
	"net/url"
	"strings"
)

// typeSynonyms collapses near-synonyms onto the category the classifieds
// site indexes.
var typeSynonyms = map[string]string{
	"lote":             "terreno",
	"lotes":            "terreno",
	"gleba":            "terreno",
	"área":             "terreno",
	"area":             "terreno",
	"terreno":          "terreno",
	"chácara":          "terreno",
	"chacara":          "terreno",
	"casa":             "casa",
	"sobrado":          "casa",
	"casa térrea":      "casa",
	"residência":       "casa",
	"residencia":       "casa",
	"apartamento":      "apartamento",
	"apto":             "apartamento",
	"apto.":            "apartamento",
	"ap":               "apartamento",
	"flat":             "apartamento",
	"kitnet":           "apartamento",
	"cobertura":        "apartamento",
	"sala":             "comercial",
	"sala comercial":   "comercial",
	"loja":             "comercial",
	"galpão":           "comercial",
	"galpao":           "comercial",
	"prédio comercial": "comercial",
	"imóvel comercial": "comercial",
}

// Query describes the lot a search is run for.
type Query struct {
	City         string
	State        string
	Neighborhood string
	Type         string
}

// NormalizeType lower-cases t and maps known synonyms.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.Join(strings.Fields(t), " "))
	if v, ok := typeSynonyms[t]; ok {
		return v
	}
	for _, word := range strings.Fields(t) {
		if v, ok := typeSynonyms[word]; ok {
			return v
		}
	}
	return t
}

// BuildQuery renders the free-text search terms.
func BuildQuery(q Query) string {
	parts := make([]string, 0, 3)
	if t := NormalizeType(q.Type); t != "" && t != "imóvel" {
		parts = append(parts, t)
	}
	for _, v := range []string{q.Neighborhood, q.City} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func searchURL(baseURL string, q Query) string {
	uf := strings.ToLower(strings.TrimSpace(q.State))
	values := url.Values{}
	values.Set("q", BuildQuery(q))
	return strings.TrimRight(baseURL, "/") + "/imoveis/venda/estado-" + uf + "?" + values.Encode()
}
