package fields

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is a coarse spending category inferred from a merchant name.
type Category string

const (
	CategorySupermarket   Category = "supermarket"
	CategoryRestaurant    Category = "restaurant"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryShopping      Category = "shopping"
	CategoryTransfer      Category = "transfer"
	CategoryATM           Category = "atm"
	CategoryOther         Category = "other"
)

// Merchant is a cleaned counterparty name.
type Merchant struct {
	Name     string    `json:"name"`
	Raw      string    `json:"raw"`
	Category *Category `json:"category,omitempty"`
}

type categoryRule struct {
	category Category
	keywords []string
}

// Keywords are accent-free and lower case; the first category with a hit wins.
var categoryRules = []categoryRule{
	{CategorySupermarket, []string{"exito", "carulla", "jumbo", "olimpica", "d1", "ara", "makro", "metro", "colsubsidio", "supermercado", "surtimax", "euro supermercados"}},
	{CategoryRestaurant, []string{"restaurante", "rappi", "ifood", "frisby", "kfc", "mcdonalds", "burger", "pizza", "el corral", "crepes", "juan valdez", "starbucks", "cafe", "panaderia", "domicilios"}},
	{CategoryTransport, []string{"uber", "didi", "cabify", "indriver", "taxi", "transmilenio", "tullave", "sitp", "terpel", "texaco", "primax", "biomax", "gasolina", "peaje", "parqueadero", "avianca", "latam"}},
	{CategoryUtilities, []string{"epm", "codensa", "enel", "vanti", "gas natural", "acueducto", "claro", "movistar", "tigo", "etb", "une", "wom", "energia", "servicios publicos"}},
	{CategoryEntertainment, []string{"netflix", "spotify", "cine colombia", "cinemark", "procinal", "disney", "hbo", "prime video", "steam", "playstation", "xbox", "youtube"}},
	{CategoryHealth, []string{"farmatodo", "cruz verde", "drogueria", "farmacia", "colsanitas", "sura", "eps", "clinica", "hospital", "laboratorio", "odontologia"}},
	{CategoryEducation, []string{"universidad", "colegio", "icetex", "platzi", "coursera", "udemy", "matricula", "libreria"}},
	{CategoryShopping, []string{"falabella", "alkosto", "ktronix", "homecenter", "zara", "amazon", "mercadolibre", "mercado libre", "arturo calle", "pepe ganga", "tienda", "almacen"}},
	{CategoryTransfer, []string{"transferencia", "transf", "traslado", "envio", "giro", "nequi", "daviplata", "bre-b"}},
	{CategoryATM, []string{"cajero", "retiro", "atm", "servibanca", "efectivo"}},
}

var categoryPatterns = compileCategories(categoryRules)

type categoryPattern struct {
	category Category
	re       *regexp.Regexp
}

func compileCategories(rules []categoryRule) []categoryPattern {
	out := make([]categoryPattern, 0, len(rules))
	for _, r := range rules {
		quoted := make([]string, len(r.keywords))
		for i, k := range r.keywords {
			quoted[i] = regexp.QuoteMeta(k)
		}
		out = append(out, categoryPattern{
			category: r.category,
			re:       regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}
	return out
}

// merchantCleanups are applied in order before title-casing.
var merchantCleanups = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bNIT\.?\s*:?\s*[\d.\-]+`), " "},
	{regexp.MustCompile(`(?i)\b(?:TEL[EÉ]FONO|TEL|CEL)\.?\s*:?\s*[\d\s\-]{7,}`), " "},
	{regexp.MustCompile(`(?i)\bS\.?\s?A\.?\s?S\b\.?`), " "},
	{regexp.MustCompile(`(?i)\bLTDA\b\.?`), " "},
	{regexp.MustCompile(`(?i)\bS\.\s?A\b\.?`), " "},
	{regexp.MustCompile(`(?i)\s+SA$`), " "},
	{regexp.MustCompile(`(?i)\b(?:CIA|INC|CORP)\b\.?`), " "},
	{regexp.MustCompile(`\*+`), " "},
}

var merchantStopWords = map[string]bool{
	"de": true, "del": true, "el": true, "la": true, "en": true, "y": true, "a": true,
}

// ExtractMerchant cleans a raw merchant string and detects its category.
func ExtractMerchant(text string) (Merchant, bool) {
	name := CleanMerchant(text)
	if name == "" {
		return Merchant{}, false
	}
	m := Merchant{Name: name, Raw: strings.TrimSpace(text)}
	if c, ok := DetectCategory(text); ok {
		m.Category = &c
	}
	return m, true
}

// CleanMerchant strips company suffixes, tax and phone annotations and
// asterisks, then title-cases the rest.
func CleanMerchant(text string) string {
	s := text
	for _, c := range merchantCleanups {
		s = c.re.ReplaceAllString(s, c.repl)
	}
	s = strings.TrimFunc(strings.Join(strings.Fields(s), " "), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if s == "" {
		return ""
	}
	caser := cases.Title(language.Spanish)
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case merchantStopWords[lower] && i > 0:
			words[i] = lower
		case len([]rune(w)) <= 2 && !merchantStopWords[lower]:
			words[i] = strings.ToUpper(w)
		default:
			words[i] = caser.String(lower)
		}
	}
	return strings.Join(words, " ")
}

// DetectCategory matches the accent-folded text against the category table.
func DetectCategory(text string) (Category, bool) {
	folded := Fold(text)
	for _, p := range categoryPatterns {
		if p.re.MatchString(folded) {
			return p.category, true
		}
	}
	return "", false
}

// CategoryOf is DetectCategory with CategoryOther as the fallback.
func CategoryOf(text string) Category {
	if c, ok := DetectCategory(text); ok {
		return c
	}
	return CategoryOther
}

// Fold lower-cases s and strips diacritics: "Olímpica" becomes "olimpica".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

var (
	descriptionLabel = regexp.MustCompile(`(?i)\b(?:concepto|descripci[oó]n|detalle)\s*:\s*([^\n;.]+)`)
	referenceLabel   = regexp.MustCompile(`(?i)\b(?:referencia|ref|comprobante|aprobaci[oó]n|autorizaci[oó]n)\.?\s*(?:no\.?\s*)?[:#]\s*([A-Za-z0-9\-]+)`)
)

// ExtractDescription returns the text after an explicit "concepto:" style label.
func ExtractDescription(text string) (string, bool) {
	m := descriptionLabel.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// ExtractReference returns the token after a "referencia:", "comprobante:"
// or "aprobacion:" label.
func ExtractReference(text string) (string, bool) {
	m := referenceLabel.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
