// Package parser converts semi-structured exam documents into question
// records. A document is a series of numbered blocks ("12. prompt"), each
// holding dash bullets for options ("- A. text") and a <details> annotation
// naming the correct letter(s) and an optional explanation.
//
// Parsing is best-effort per block: a malformed block is skipped, never
// aborting the whole document. The grammar is implemented as an explicit
// scanner with named stages (segment, prompt/options split, annotation
// extraction) so each stage is testable in isolation.
package parser

import "strings"

const (
	annotationOpen  = "<details"
	annotationClose = "</details>"
	answerLabel     = "correct answer"
	explLabel       = "explanation"
)

// Parse runs ParseDocument with DefaultOptions and returns the questions.
func Parse(doc string) []Question {
	return ParseDocument(doc, DefaultOptions()).Questions
}

// ParseDocument scans doc and returns every well-formed question in order.
// Deterministic: the same document always yields the same result.
func ParseDocument(doc string, opts Options) Result {
	var res Result
	for _, block := range segment(doc) {
		q, ok := parseBlock(block, opts)
		if !ok {
			res.SkippedBlocks++
			continue
		}
		q.ID = len(res.Questions) + 1
		res.Questions = append(res.Questions, q)
	}
	return res
}

// segment splits the document into question blocks. A block starts at a line
// beginning with an integer label ("3.") and runs until the next label or end
// of document. The returned block text has the numeric label stripped; text
// before the first label is ignored.
func segment(doc string) []string {
	var blocks []string
	var cur []string
	inBlock := false

	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")
		if rest, ok := stripLabel(line); ok {
			if inBlock {
				blocks = append(blocks, strings.Join(cur, "\n"))
			}
			cur = []string{rest}
			inBlock = true
			continue
		}
		if inBlock {
			cur = append(cur, line)
		}
	}
	if inBlock {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

// stripLabel matches a leading "<digits>." label and returns the remainder.
func stripLabel(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != '.' {
		return "", false
	}
	return line[i+1:], true
}

// parseBlock extracts one question from a block body. Returns false when the
// block has no option bullets before the annotation; such blocks are invalid.
func parseBlock(body string, opts Options) (Question, bool) {
	annStart := indexFold(body, annotationOpen)
	optRegion := body
	if annStart >= 0 {
		optRegion = body[:annStart]
	}

	firstBullet, _, ok := findBullet(optRegion, 0)
	if !ok {
		return Question{}, false
	}

	q := Question{
		Text:    strings.TrimSpace(optRegion[:firstBullet]),
		Options: scanOptions(optRegion, firstBullet),
	}

	if annStart >= 0 {
		correct, expl := parseAnnotation(annotationBody(body, annStart), opts)
		q.Correct = filterToOptions(correct, q.Options)
		q.Explanation = expl
	}
	return q, true
}

// scanOptions walks the dash bullets in region starting at the first bullet.
// Declaration order is preserved; a duplicate letter keeps the first
// occurrence and drops the later one.
func scanOptions(region string, pos int) []Option {
	var options []Option
	seen := map[byte]bool{}

	for {
		start, letter, ok := findBullet(region, pos)
		if !ok {
			break
		}
		textStart := bulletTextStart(region, start)
		end := len(region)
		if next, _, ok := findBullet(region, textStart); ok {
			end = next
		}
		if !seen[letter] {
			seen[letter] = true
			options = append(options, Option{
				Letter: string(letter),
				Text:   strings.TrimSpace(region[textStart:end]),
			})
		}
		pos = end
		if end == len(region) {
			break
		}
	}
	return options
}

// findBullet locates the next option marker at or after pos: a dash at a word
// boundary, optional spaces, an uppercase letter, a period.
func findBullet(s string, pos int) (start int, letter byte, ok bool) {
	for i := pos; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		if i > 0 && !isSpace(s[i-1]) {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j+1 < len(s) && s[j] >= 'A' && s[j] <= 'Z' && s[j+1] == '.' {
			return i, s[j], true
		}
	}
	return 0, 0, false
}

// bulletTextStart returns the index just past the "letter." of the bullet
// beginning at start.
func bulletTextStart(s string, start int) int {
	j := start + 1
	for j < len(s) && s[j] == ' ' {
		j++
	}
	return j + 2 // skip letter and period
}

// annotationBody returns the annotation text between the opening tag's ">"
// and the closing tag, or to end of block when the annotation is unclosed.
func annotationBody(body string, annStart int) string {
	inner := body[annStart:]
	if gt := strings.IndexByte(inner, '>'); gt >= 0 {
		inner = inner[gt+1:]
	} else {
		inner = inner[len(annotationOpen):]
	}
	if end := indexFold(inner, annotationClose); end >= 0 {
		inner = inner[:end]
	}
	return inner
}

// parseAnnotation pulls the correct letters and optional explanation out of
// an annotation body. A missing answer label yields an empty letter set; the
// question is still accepted.
func parseAnnotation(ann string, opts Options) (correct []string, explanation string) {
	expIdx := indexFold(ann, explLabel)
	if expIdx >= 0 {
		rest := ann[expIdx+len(explLabel):]
		rest = strings.TrimLeft(rest, " \t")
		rest = strings.TrimPrefix(rest, ":")
		explanation = strings.TrimSpace(rest)
	}

	labelIdx := indexFold(ann, answerLabel)
	if labelIdx < 0 {
		return nil, explanation
	}
	tail := ann[labelIdx+len(answerLabel):]
	if expIdx > labelIdx {
		tail = ann[labelIdx+len(answerLabel) : expIdx]
	}
	// Tolerate both "Correct answer:" and "Correct answer(s):".
	tail = strings.TrimPrefix(tail, "(s)")
	if len(tail) > 0 && (tail[0] == 's' || tail[0] == 'S') {
		tail = tail[1:]
	}
	tail = strings.TrimLeft(tail, " \t")
	tail = strings.TrimPrefix(tail, ":")

	return parseLetterList(tail, opts), explanation
}

// parseLetterList applies the accepted letter-list formats in priority
// order: comma-separated, "and"-separated, single bare letter, then (when
// enabled) the loose fallback collecting any uppercase letters in the text.
func parseLetterList(seg string, opts Options) []string {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return nil
	}

	if strings.Contains(seg, ",") {
		if letters, ok := splitLetters(seg, ","); ok {
			return letters
		}
	}
	if letters, ok := splitAnd(seg); ok {
		return letters
	}
	if l, ok := bareLetter(seg); ok {
		return []string{l}
	}
	if opts.LooseLetterFallback {
		return looseLetters(seg)
	}
	return nil
}

// splitLetters succeeds when every sep-delimited part is a bare letter.
func splitLetters(seg, sep string) ([]string, bool) {
	parts := strings.Split(seg, sep)
	letters := make([]string, 0, len(parts))
	for _, p := range parts {
		l, ok := bareLetter(p)
		if !ok {
			return nil, false
		}
		letters = append(letters, l)
	}
	return dedupe(letters), true
}

// splitAnd succeeds when the segment is letters joined by the word "and",
// e.g. "A and C".
func splitAnd(seg string) ([]string, bool) {
	fields := strings.Fields(seg)
	var letters []string
	sawAnd := false
	for _, f := range fields {
		if strings.EqualFold(f, "and") {
			sawAnd = true
			continue
		}
		l, ok := bareLetter(f)
		if !ok {
			return nil, false
		}
		letters = append(letters, l)
	}
	if !sawAnd || len(letters) < 2 {
		return nil, false
	}
	return dedupe(letters), true
}

// bareLetter accepts a single uppercase letter, tolerating a trailing period.
func bareLetter(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
		return s, true
	}
	return "", false
}

// looseLetters collects every uppercase letter in the segment. Lossy: prose
// containing stray capitals pollutes the answer set.
func looseLetters(seg string) []string {
	var letters []string
	for i := 0; i < len(seg); i++ {
		if seg[i] >= 'A' && seg[i] <= 'Z' {
			letters = append(letters, string(seg[i]))
		}
	}
	return dedupe(letters)
}

// filterToOptions drops answer letters that name no existing option, so the
// parser never fabricates an answer key absent from the options list.
func filterToOptions(letters []string, options []Option) []string {
	if len(letters) == 0 {
		return nil
	}
	valid := map[string]bool{}
	for _, o := range options {
		valid[o.Letter] = true
	}
	var kept []string
	for _, l := range letters {
		if valid[l] {
			kept = append(kept, l)
		}
	}
	return kept
}

func dedupe(letters []string) []string {
	seen := map[string]bool{}
	out := letters[:0]
	for _, l := range letters {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// indexFold is a case-insensitive strings.Index for ASCII needles. Scanning
// bytes keeps returned offsets valid for the original string even when the
// haystack holds multi-byte runes.
func indexFold(s, needle string) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
