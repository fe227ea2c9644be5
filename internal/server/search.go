package server

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/techshop-dev/techshop/internal/models"
)

const autocompleteLimit = 10

// fold lowercases s and strips diacritics, so "Écran" matches "ecran"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// searchableText is the text a query is matched against
func searchableText(p *models.Product) string {
	return p.Name + " " + p.Description + " " + p.Category
}

func matchSubstring(p *models.Product, query string) bool {
	return strings.Contains(strings.ToLower(searchableText(p)), strings.ToLower(query))
}

func matchNormalized(p *models.Product, query string) bool {
	return strings.Contains(fold(searchableText(p)), fold(query))
}

// matchFuzzy requires every query term to be within edit distance of some word
func matchFuzzy(p *models.Product, query string) bool {
	terms := strings.Fields(fold(query))
	if len(terms) == 0 {
		return true
	}

	words := strings.FieldsFunc(fold(searchableText(p)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, term := range terms {
		if !slices.ContainsFunc(words, func(word string) bool {
			return strings.HasPrefix(word, term) || levenshtein(term, word) <= maxEdits(term)
		}) {
			return false
		}
	}
	return true
}

func maxEdits(term string) int {
	switch n := len([]rune(term)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func filterProducts(products []models.Product, match func(*models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if match(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

// sortProducts orders products in place by price, name or stock.
// Unknown fields sort by price.
func sortProducts(products []models.Product, field, order string) {
	compare := func(a, b models.Product) int {
		switch strings.ToLower(field) {
		case "name":
			return cmp.Compare(fold(a.Name), fold(b.Name))
		case "stock", "stockquantity":
			return cmp.Compare(a.StockQuantity, b.StockQuantity)
		default:
			return cmp.Compare(a.Price, b.Price)
		}
	}

	desc := strings.EqualFold(order, "desc")
	slices.SortStableFunc(products, func(a, b models.Product) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// autocomplete suggests product names: prefix matches first, then
// subsequence matches ranked by score.
func autocomplete(products []models.Product, query string) []string {
	suggestions := []string{}
	folded := strings.TrimSpace(fold(query))
	if folded == "" {
		return suggestions
	}

	names := make([]string, 0, len(products))
	foldedNames := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
		foldedNames = append(foldedNames, fold(p.Name))
	}

	seen := make(map[int]bool)
	for i, name := range foldedNames {
		if strings.HasPrefix(name, folded) {
			suggestions = append(suggestions, names[i])
			seen[i] = true
		}
	}

	for _, match := range fuzzy.Find(folded, foldedNames) {
		if !seen[match.Index] {
			suggestions = append(suggestions, names[match.Index])
			seen[match.Index] = true
		}
	}

	if len(suggestions) > autocompleteLimit {
		suggestions = suggestions[:autocompleteLimit]
	}
	return suggestions
}
