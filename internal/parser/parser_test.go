package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `1. Pick one. - A. Foo - B. Bar <details>Correct answer: B</details>
2. Choose two. - A. X - B. Y - C. Z <details>Correct answer(s): A, C</details>`

func TestParseSingleQuestion(t *testing.T) {
	questions := Parse("1. Pick one. - A. Foo - B. Bar <details>Correct answer: B</details>")
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, 1, q.ID)
	assert.Equal(t, "Pick one.", q.Text)
	require.Len(t, q.Options, 2)
	assert.Equal(t, Option{Letter: "A", Text: "Foo"}, q.Options[0])
	assert.Equal(t, Option{Letter: "B", Text: "Bar"}, q.Options[1])
	assert.Equal(t, []string{"B"}, q.Correct)
	assert.Empty(t, q.Explanation)
}

func TestParseCommaSeparatedAnswers(t *testing.T) {
	questions := Parse(sampleDoc)
	require.Len(t, questions, 2)

	q := questions[1]
	assert.Equal(t, 2, q.ID)
	assert.Equal(t, "Choose two.", q.Text)
	assert.Equal(t, []string{"A", "C"}, q.Correct)
}

func TestParseAndSeparatedAnswers(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y - C. Z <details>Correct answers: A and B</details>"
	questions := Parse(doc)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"A", "B"}, questions[0].Correct)
}

func TestParseMultilineBlock(t *testing.T) {
	doc := "Intro text that is not a question.\n" +
		"12. Which service stores objects?\n" +
		"- A. Block storage\n" +
		"- B. Object storage\n" +
		"- C. Archive tape\n" +
		"<details>\nCorrect answer: B\nExplanation: Object stores hold blobs.\n</details>\n"
	questions := Parse(doc)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, "Which service stores objects?", q.Text)
	require.Len(t, q.Options, 3)
	assert.Equal(t, "Object storage", q.Options[1].Text)
	assert.Equal(t, []string{"B"}, q.Correct)
	assert.Equal(t, "Object stores hold blobs.", q.Explanation)
}

func TestParseIsDeterministic(t *testing.T) {
	first := ParseDocument(sampleDoc, DefaultOptions())
	second := ParseDocument(sampleDoc, DefaultOptions())
	assert.Equal(t, first, second)
}

func TestParseSkipsBlockWithoutOptions(t *testing.T) {
	doc := "1. No options here at all.\n2. Valid. - A. Yes - B. No <details>Correct answer: A</details>"
	res := ParseDocument(doc, DefaultOptions())
	require.Len(t, res.Questions, 1)
	assert.Equal(t, 1, res.SkippedBlocks)
	// Ids stay dense across skipped blocks.
	assert.Equal(t, 1, res.Questions[0].ID)
}

func TestParseEmptyDocument(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("just prose, no numbered blocks"))
}

func TestParseNeverInventsAnswers(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y <details>Correct answer: D</details>"
	questions := Parse(doc)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].Correct)
}

func TestParseAnnotationWithoutLabel(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y <details>no key given here</details>"
	questions := Parse(doc)
	require.Len(t, questions, 1)
	// Accepted, but ungradeable by design.
	assert.Empty(t, questions[0].Correct)
}

func TestParseMissingAnnotation(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y"
	questions := Parse(doc)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].Correct)
	assert.Len(t, questions[0].Options, 2)
}

func TestParseDuplicateLettersKeepFirst(t *testing.T) {
	doc := "1. Pick. - A. First - A. Second - B. Other <details>Correct answer: A</details>"
	questions := Parse(doc)
	require.Len(t, questions, 1)

	q := questions[0]
	require.Len(t, q.Options, 2)
	assert.Equal(t, "First", q.Options[0].Text)
	assert.Equal(t, "B", q.Options[1].Letter)
}

func TestParseLooseLetterFallback(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y <details>Correct answer: the second one, B</details>"

	loose := ParseDocument(doc, Options{LooseLetterFallback: true})
	require.Len(t, loose.Questions, 1)
	assert.Equal(t, []string{"B"}, loose.Questions[0].Correct)

	strict := ParseDocument(doc, Options{LooseLetterFallback: false})
	require.Len(t, strict.Questions, 1)
	assert.Empty(t, strict.Questions[0].Correct)
}

func TestParseUnclosedAnnotation(t *testing.T) {
	doc := "1. Pick. - A. X - B. Y <details>Correct answer: A"
	questions := Parse(doc)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"A"}, questions[0].Correct)
}

func TestParseCorrectLettersAlwaysInOptions(t *testing.T) {
	docs := []string{
		sampleDoc,
		"1. Pick. - A. X <details>Correct answers: A, B, Z</details>",
		"3. Pick. - B. Y - C. Z <details>Correct answer: C. Explanation: C wins</details>",
	}
	for _, doc := range docs {
		for _, q := range Parse(doc) {
			for _, letter := range q.Correct {
				assert.True(t, q.HasOption(letter), "letter %s missing from options in %q", letter, q.Text)
			}
		}
	}
}
