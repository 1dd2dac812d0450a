// Package match implements the fuzzy task resolver used by the
// natural-language command interface. Free-text references like
// "buy groceri" are resolved against a user's task titles with a token-set
// similarity score, so word order and partial words still find the right
// task, while near-ties are surfaced to the caller for disambiguation
// instead of silently picking one.
package match

import (
	"sort"
	"strings"

	"github.com/taskline/taskline-api/internal/domain"
)

// Scoring thresholds. The token-set metric and these cutoffs define the
// resolver's observable behavior; changing either changes which queries
// resolve, so treat them as part of the contract.
const (
	// FuzzyThreshold is the minimum score for a candidate to be considered
	// a match at all.
	FuzzyThreshold = 80

	// ConfidentThreshold is the score above which a single leading
	// candidate is accepted without disambiguation.
	ConfidentThreshold = 95

	// confidentMargin is how many points the leader must beat the
	// runner-up by to be accepted on confidence alone.
	confidentMargin = 10

	// maxAmbiguous bounds how many candidates an ambiguous result carries.
	maxAmbiguous = 5
)

// Kind classifies the outcome of a resolution attempt.
type Kind string

// Resolution outcomes.
const (
	// KindExact means the query equals a candidate title, ignoring case
	// and surrounding whitespace.
	KindExact Kind = "exact"

	// KindFuzzy means a single candidate matched with sufficient
	// confidence.
	KindFuzzy Kind = "fuzzy"

	// KindAmbiguous means several candidates matched and the caller must
	// disambiguate, typically by presenting a picklist.
	KindAmbiguous Kind = "ambiguous"

	// KindNone means no candidate scored at or above FuzzyThreshold.
	KindNone Kind = "none"
)

// Candidate pairs a task with its similarity score against the query.
type Candidate struct {
	Task  *domain.Task
	Score int
}

// Result is the outcome of resolving a free-text query against a candidate
// set. Task is set for exact and fuzzy results; Candidates is set for
// ambiguous results, ordered highest score first.
type Result struct {
	Kind       Kind
	Task       *domain.Task
	Candidates []Candidate
}

// FindTaskByTitle resolves a free-text query against the given tasks.
//
// An exact (case- and whitespace-insensitive) title match short-circuits
// everything else. Otherwise every candidate is scored with TokenSetRatio
// and those at or above FuzzyThreshold are kept. A sole surviving candidate
// wins outright; with several survivors the leader wins only when it scores
// at least ConfidentThreshold and beats the runner-up by more than
// confidentMargin, and anything less confident is returned as ambiguous
// with the top candidates for the caller to disambiguate.
func FindTaskByTitle(query string, tasks []*domain.Task) Result {
	normalized := normalize(query)
	if normalized == "" {
		return Result{Kind: KindNone}
	}

	for _, task := range tasks {
		if normalize(task.Title) == normalized {
			return Result{Kind: KindExact, Task: task}
		}
	}

	var matched []Candidate
	for _, task := range tasks {
		score := TokenSetRatio(normalized, normalize(task.Title))
		if score >= FuzzyThreshold {
			matched = append(matched, Candidate{Task: task, Score: score})
		}
	}

	if len(matched) == 0 {
		return Result{Kind: KindNone}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	if len(matched) == 1 {
		return Result{Kind: KindFuzzy, Task: matched[0].Task}
	}

	top, runnerUp := matched[0], matched[1]
	if top.Score >= ConfidentThreshold && top.Score-runnerUp.Score > confidentMargin {
		return Result{Kind: KindFuzzy, Task: top.Task}
	}

	if len(matched) > maxAmbiguous {
		matched = matched[:maxAmbiguous]
	}
	return Result{Kind: KindAmbiguous, Candidates: matched}
}

// TokenSetRatio scores the similarity of two strings on a 0-100 scale,
// insensitive to token order and duplication.
//
// Both strings are split into sorted sets of whitespace-separated tokens.
// From the shared tokens and each side's leftovers, three strings are
// formed: the intersection alone, and the intersection extended with each
// side's remainder. The result is the best pairwise similarity among them,
// which is what makes a query whose tokens all appear in a title score 100
// regardless of extra words in the title.
func TokenSetRatio(a, b string) int {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		if len(tokensA) == 0 && len(tokensB) == 0 {
			return 100
		}
		return 0
	}

	var shared, onlyA, onlyB []string
	for _, tok := range tokensA {
		if contains(tokensB, tok) {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for _, tok := range tokensB {
		if !contains(tokensA, tok) {
			onlyB = append(onlyB, tok)
		}
	}

	base := strings.Join(shared, " ")
	combinedA := joinNonEmpty(base, strings.Join(onlyA, " "))
	combinedB := joinNonEmpty(base, strings.Join(onlyB, " "))

	best := similarity(base, combinedA)
	if s := similarity(base, combinedB); s > best {
		best = s
	}
	if s := similarity(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

// normalize lowercases and trims a title or query before comparison.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenSet splits s into its unique whitespace-separated tokens, sorted for
// deterministic joining.
func tokenSet(s string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range strings.Fields(s) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

func contains(tokens []string, tok string) bool {
	for _, t := range tokens {
		if t == tok {
			return true
		}
	}
	return false
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// similarity is a normalized indel similarity on a 0-100 scale: the edit
// distance restricted to insertions and deletions, scaled by the combined
// length. Equivalent to 100 * (1 - dist/(len(a)+len(b))).
func similarity(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	la, lb := len(a), len(b)
	dist := la + lb - 2*longestCommonSubsequence(a, b)
	// Round half up to match conventional ratio reporting.
	return (200*(la+lb) - 200*dist + (la + lb)) / (2 * (la + lb))
}

// longestCommonSubsequence computes the LCS length with a rolling
// single-row table.
func longestCommonSubsequence(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}
	return row[len(b)]
}
