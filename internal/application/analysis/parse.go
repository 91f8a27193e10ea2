package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

type block int

const (
	blockNone block = iota
	blockStrengths
	blockWeaknesses
	blockRecommendations
	blockCommentary
)

// parsed holds the items found under each recognized heading.
type parsed struct {
	strengths       []string
	weaknesses      []string
	recommendations []string
	commentary      []string
}

var (
	percentRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*[%٪]`)
	roiRe     = regexp.MustCompile(`(?i)(?:بازگشت سرمایه|roi)[^0-9\n]*([0-9]+(?:\.[0-9]+)?)\s*[%٪]`)
	paybackRe = regexp.MustCompile(`(?i)(?:دوره بازگشت|payback(?: period)?)[^0-9\n]*([0-9]+(?:\.[0-9]+)?)\s*(?:ماه|months?)`)
	bulletRe  = regexp.MustCompile(`^(?:[-*•]|[0-9]+[.)])\s*`)
)

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// normalizeDigits maps Persian and Arabic-Indic digits to ASCII.
func normalizeDigits(s string) string {
	return digitReplacer.Replace(s)
}

func classifyHeading(line string) (block, bool) {
	trimmed := strings.TrimSpace(line)
	isHeading := strings.HasPrefix(trimmed, "#")
	if !isHeading && !bulletRe.MatchString(trimmed) &&
		strings.HasSuffix(trimmed, ":") && utf8.RuneCountInString(trimmed) <= 40 {
		isHeading = true
	}
	if !isHeading {
		return blockNone, false
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "قوت") || strings.Contains(lower, "strength"):
		return blockStrengths, true
	case strings.Contains(lower, "ضعف") || strings.Contains(lower, "weakness"):
		return blockWeaknesses, true
	case strings.Contains(lower, "پیشنهاد") || strings.Contains(lower, "recommend") ||
		strings.Contains(lower, "اقدام") || strings.Contains(lower, "action"):
		return blockRecommendations, true
	case strings.Contains(lower, "دیدگاه") || strings.Contains(lower, "commentary"):
		return blockCommentary, true
	}
	return blockNone, true
}

// parseText splits model or fallback output into its headed lists.
func parseText(text string) parsed {
	var out parsed
	current := blockNone
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if b, ok := classifyHeading(line); ok {
			current = b
			continue
		}
		if roiRe.MatchString(normalizeDigits(line)) || paybackRe.MatchString(normalizeDigits(line)) {
			continue
		}
		item := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		switch current {
		case blockStrengths:
			out.strengths = append(out.strengths, item)
		case blockWeaknesses:
			out.weaknesses = append(out.weaknesses, item)
		case blockRecommendations:
			out.recommendations = append(out.recommendations, item)
		case blockCommentary:
			out.commentary = append(out.commentary, item)
		}
	}
	return out
}

// firstPercent returns the first N% value in s.
func firstPercent(s string) (float64, bool) {
	m := percentRe.FindStringSubmatch(normalizeDigits(s))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseROI(text string) (float64, bool) {
	return firstFloat(roiRe, text)
}

func parsePayback(text string) (float64, bool) {
	return firstFloat(paybackRe, text)
}

func firstFloat(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(normalizeDigits(text))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// shorten cuts s to at most n runes on a word boundary when possible.
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

func round1(v float64) float64 {
	if v < 0 {
		return -float64(int(-v*10+0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
