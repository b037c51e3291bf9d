package agent

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// keyToken matches a number with its inner separators ("1.234,50",
// "01/11/2024") or a run of letters.
var keyToken = regexp.MustCompile(`\d+(?:[.,/]\d+)*|\pL+`)

// tokenAliases collapses unit spellings and street-type abbreviations.
var tokenAliases = map[string]string{
	"m2": "m", "m": "m", "mt": "m", "mts": "m", "mt2": "m", "mts2": "m",
	"metro": "m", "metros": "m", "quadrado": "", "quadrados": "",
	"r": "rua", "av": "avenida", "al": "alameda", "tv": "travessa", "trav": "travessa",
	"rod": "rodovia", "pc": "praca", "pca": "praca", "est": "estrada",
	"n": "", "no": "", "nro": "", "num": "", "numero": "",
	"apto": "apartamento", "ap": "apartamento", "apt": "apartamento",
}

// foldKey lower-cases and strips accents.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// comparisonKey reduces a value to its formatting-independent tokens,
// separated by spaces. Numbers are canonicalized, never split.
func comparisonKey(s string) string {
	s = strings.NewReplacer("²", "2", "º", "", "ª", "").Replace(foldKey(s))
	fields := keyToken.FindAllString(s, -1)
	keys := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if tok[0] >= '0' && tok[0] <= '9' {
			keys = append(keys, canonicalNumber(tok))
			continue
		}
		// "m2" arrives as "m" then "2"
		if (tok == "m" || tok == "mt" || tok == "mts") && i+1 < len(fields) && fields[i+1] == "2" {
			i++
		}
		if alias, ok := tokenAliases[tok]; ok {
			tok = alias
		}
		if tok != "" {
			keys = append(keys, tok)
		}
	}
	return strings.Join(keys, " ")
}

// canonicalNumber reads a number the Brazilian way: comma is the decimal
// mark and dots group thousands. A single dot not followed by exactly three
// digits is read as a decimal point. Dates keep their part order.
func canonicalNumber(tok string) string {
	if strings.Contains(tok, "/") {
		parts := strings.Split(tok, "/")
		for i, p := range parts {
			parts[i] = trimLeadingZeros(p)
		}
		return strings.Join(parts, "/")
	}
	intPart, frac := tok, ""
	if i := strings.LastIndexByte(tok, ','); i >= 0 {
		intPart, frac = tok[:i], tok[i+1:]
		intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	} else if strings.Contains(tok, ".") {
		groups := strings.Split(tok, ".")
		thousands := true
		for _, g := range groups[1:] {
			if len(g) != 3 {
				thousands = false
				break
			}
		}
		switch {
		case thousands:
			intPart = strings.Join(groups, "")
		case len(groups) == 2:
			intPart, frac = groups[0], groups[1]
		default:
			return tok
		}
	}
	intPart = trimLeadingZeros(intPart)
	if frac = strings.TrimRight(frac, "0"); frac != "" {
		return intPart + "." + frac
	}
	return intPart
}

func trimLeadingZeros(s string) string {
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	return "0"
}

// EquivalentValues reports whether two values are equal once case, accents,
// whitespace, punctuation, area units and common abbreviations are ignored.
func EquivalentValues(a, b string) bool {
	if strings.TrimSpace(a) == strings.TrimSpace(b) {
		return true
	}
	return comparisonKey(a) == comparisonKey(b)
}
