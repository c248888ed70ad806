// Package nlu resolves free-form chat text into canonical commands.
//
// Resolution is an ordered rule table evaluated top to bottom; the first
// matching rule wins and rules are never reordered or backtracked. A rule
// that matches but lacks a mandatory argument yields "unresolved" rather
// than a degraded command.
package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Grouped form first: alternation is leftmost-first, so the plain
	// \d+ branch would otherwise split "1.234,56" at the separator.
	numberRx   = regexp.MustCompile(`(?:r\$\s*)?(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?|\d+[.,]\d{1,2}|\d+)`)
	dateRx     = regexp.MustCompile(`(20\d{2}-\d{2}-\d{2})`)
	monthRx    = regexp.MustCompile(`(20\d{2}-(?:0[1-9]|1[0-2]))`)
	categoryRx = regexp.MustCompile(`#([a-z0-9_]+)`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize lower-cases, strips diacritics, drops characters outside
// [a-z0-9#.,:- ] and collapses whitespace.
func Normalize(text string) string {
	s := strings.ToLower(text)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '#' || r == '.' || r == ',' || r == ':' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExtractNumbers returns every monetary-looking number in text order.
// A separator followed by exactly three digits and then another separator
// or the end of the token is treated as thousands grouping and removed;
// a remaining comma becomes the decimal point.
func ExtractNumbers(s string) []float64 {
	var out []float64
	for _, m := range numberRx.FindAllStringSubmatch(s, -1) {
		cleaned := stripGrouping(m[1])
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// stripGrouping removes '.' or ',' used as thousands separators. A
// separator counts as grouping when followed by exactly three digits and
// then a separator or the end of the token.
func stripGrouping(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c == '.' || c == ',') && i > 0 && isGroupSep(raw, i) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isGroupSep(raw string, i int) bool {
	j := i + 1
	digits := 0
	for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
		digits++
		j++
	}
	if digits < 3 {
		return false
	}
	if digits == 3 {
		return j == len(raw) || raw[j] == '.' || raw[j] == ','
	}
	// more than three digits after the separator: only grouping when the
	// fourth char is itself a separator (e.g. "1.234,56")
	return raw[i+4] == '.' || raw[i+4] == ','
}

// ExtractDate returns the first literal YYYY-MM-DD, or "".
func ExtractDate(s string) string {
	return dateRx.FindString(s)
}

// ExtractCategory returns the first #token lower-cased, or "".
func ExtractCategory(s string) string {
	m := categoryRx.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return ""
	}
	return m[1]
}

type rule struct {
	match *regexp.Regexp
	// build returns the canonical command line, or ok=false when a
	// mandatory argument is missing.
	build func(norm, original string) (string, bool)
}

var expenseKeywordRx = regexp.MustCompile(`\b(gasto|gastei|despesa|comprei|paguei|custou|spent|expense|buy|bought|cost)\b`)

var rules = []rule{
	{regexp.MustCompile(`\b(ajuda|help|comandos)\b`), func(norm, _ string) (string, bool) {
		return "!ajuda", true
	}},
	{regexp.MustCompile(`\b(menu|opcoes|buttons|botoes)\b`), func(norm, _ string) (string, bool) {
		return "!menu", true
	}},
	{regexp.MustCompile(`\b(relatorio|resumo|status)\b`), func(norm, _ string) (string, bool) {
		if m := monthRx.FindString(norm); m != "" {
			return "!relatoriomes " + m, true
		}
		return "!relatorio", true
	}},
	{regexp.MustCompile(`\b(meta|objetivo|goal|target)\b|quero ganhar|quero receber`), func(norm, _ string) (string, bool) {
		if nums := ExtractNumbers(norm); len(nums) > 0 {
			return "!meta " + formatNum(nums[0]), true
		}
		return "!meta 0", true
	}},
	{regexp.MustCompile(`\b(salario|salary|recebi|ganhei|pay(?:ment)?|deposito|pagamento)\b`), func(norm, _ string) (string, bool) {
		nums := ExtractNumbers(norm)
		if len(nums) == 0 {
			return "", false
		}
		return "!salario " + formatNum(nums[0]), true
	}},
	{expenseKeywordRx, func(norm, original string) (string, bool) {
		nums := ExtractNumbers(norm)
		if len(nums) == 0 {
			return "", false
		}
		value := nums[0]
		cat := ExtractCategory(norm)
		desc := expenseDescription(original)
		cmd := "!gasto " + formatNum(value) + " " + desc
		if cat != "" {
			cmd += " #" + cat
		}
		return cmd, true
	}},
	{regexp.MustCompile(`\b(hora ?extra|extras|overtime)\b`), func(norm, _ string) (string, bool) {
		nums := ExtractNumbers(norm)
		if len(nums) == 0 {
			return "", false
		}
		cmd := "!horaextra " + formatNum(nums[0])
		if d := ExtractDate(norm); d != "" {
			cmd += " " + d
		}
		return cmd, true
	}},
	{regexp.MustCompile(`\b(folga|descanso|ferias|day off|leave|pto)\b`), func(norm, _ string) (string, bool) {
		if d := ExtractDate(norm); d != "" {
			return "!folga " + d, true
		}
		return "!folga", true
	}},
	{regexp.MustCompile(`\b(trabalhei|dia trabalhado|workday|worked today|worked)\b`), func(norm, _ string) (string, bool) {
		if d := ExtractDate(norm); d != "" {
			return "!trabalhei " + d, true
		}
		return "!trabalhei", true
	}},
	{regexp.MustCompile(`\b(banco de folgas|banco folgas|folgas saldo|leave bank)\b`), func(norm, _ string) (string, bool) {
		return "!bancofolgas", true
	}},
	{regexp.MustCompile(`\b(categorias|gastos por categoria|category breakdown|categories)\b`), func(norm, _ string) (string, bool) {
		return "!categorias", true
	}},
	{regexp.MustCompile(`\b(previsao|previsao proximo mes|prever|forecast|prediction)\b`), func(norm, _ string) (string, bool) {
		return "!previsao", true
	}},
	{regexp.MustCompile(`\b(historico|historico de|history|historical)\b`), func(norm, _ string) (string, bool) {
		months := monthRx.FindAllString(norm, -1)
		if len(months) < 2 {
			return "", false
		}
		return "!historico " + months[0] + " " + months[1], true
	}},
	{regexp.MustCompile(`\b(exportar csv|csv|planilha|exportar planilha|export csv|spreadsheet)\b`), func(norm, _ string) (string, bool) {
		return "!exportcsv", true
	}},
	{regexp.MustCompile(`\b(exportar pdf|pdf relatorio|export pdf)\b`), func(norm, _ string) (string, bool) {
		return "!exportpdf", true
	}},
	{regexp.MustCompile(`\b(ativar notificacoes diarias|enable daily notifications)\b`), func(norm, _ string) (string, bool) {
		return "!notificar diaria sim", true
	}},
	{regexp.MustCompile(`\b(desativar notificacoes diarias|disable daily notifications)\b`), func(norm, _ string) (string, bool) {
		return "!notificar diaria nao", true
	}},
	{regexp.MustCompile(`\b(ativar notificacoes semanais|enable weekly notifications)\b`), func(norm, _ string) (string, bool) {
		return "!notificar semanal sim", true
	}},
	{regexp.MustCompile(`\b(desativar notificacoes semanais|disable weekly notifications)\b`), func(norm, _ string) (string, bool) {
		return "!notificar semanal nao", true
	}},
	{regexp.MustCompile(`\b(idioma ingles|english language|set english|english)\b`), func(norm, _ string) (string, bool) {
		return "!idioma en", true
	}},
	{regexp.MustCompile(`\b(idioma portugues|portuguese language|set portuguese|portugues)\b`), func(norm, _ string) (string, bool) {
		return "!idioma pt", true
	}},
	{regexp.MustCompile(`\b(ativar insights|enable insights)\b`), func(norm, _ string) (string, bool) {
		return "!insight sim", true
	}},
	{regexp.MustCompile(`\b(desativar insights|disable insights)\b`), func(norm, _ string) (string, bool) {
		return "!insight nao", true
	}},
	{regexp.MustCompile(`\b(hora notificacao|hora notificar|notification hour|notify hour)\b`), func(norm, _ string) (string, bool) {
		nums := ExtractNumbers(norm)
		if len(nums) == 0 {
			return "", false
		}
		h := int(nums[0])
		if h < 0 || h > 23 {
			return "", false
		}
		return "!hora_notificar " + strconv.Itoa(h), true
	}},
}

// Resolve maps free text to a canonical command line ("!gasto 25 almoco
// #refeicao"). ok is false when nothing matched or a matched rule lacked a
// mandatory argument.
func Resolve(text string) (cmd string, ok bool) {
	original := strings.TrimSpace(text)
	if original == "" {
		return "", false
	}
	normText := Normalize(original)
	for _, r := range rules {
		if r.match.MatchString(normText) {
			return r.build(normText, original)
		}
	}
	return "", false
}

// expenseDescription strips the category token, any numbers and the
// triggering keyword from the original text, leaving the free description.
func expenseDescription(original string) string {
	s := categoryRx.ReplaceAllString(strings.ToLower(original), "")
	s = numberRx.ReplaceAllString(s, "")
	s = expenseKeywordRx.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "gasto"
	}
	return s
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var hintFamilies = []struct {
	rx   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`sal`), "Ex: salario 4500"},
	{regexp.MustCompile(`gast|desp|spent|expens`), "Ex: gastei 25 lanche"},
	{regexp.MustCompile(`meta|goal|target`), "Ex: meta 6000"},
	{regexp.MustCompile(`hora`), "Ex: hora extra 2"},
	{regexp.MustCompile(`folg|leave|day off`), "Ex: folga 2025-12-10"},
	{regexp.MustCompile(`trabalh|work`), "Ex: trabalhei hoje"},
	{regexp.MustCompile(`prev|forecast|predict`), "Ex: previsao"},
	{regexp.MustCompile(`hist`), "Ex: historico 2025-09 2025-12"},
	{regexp.MustCompile(`categ`), "Ex: categorias"},
	{regexp.MustCompile(`csv|sheet|plan`), "Ex: exportar csv"},
}

// Suggest returns up to three usage hints keyed by the keyword family
// detected in the unresolved text.
func Suggest(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	t := Normalize(text)
	var hints []string
	for _, f := range hintFamilies {
		if f.rx.MatchString(t) {
			hints = append(hints, f.hint)
		}
	}
	if len(hints) == 0 {
		hints = append(hints, "Ex: gasto 20 cafe")
	}
	if len(hints) > 3 {
		hints = hints[:3]
	}
	return hints
}
