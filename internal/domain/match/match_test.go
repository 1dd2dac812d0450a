package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskline/taskline-api/internal/domain"
)

func taskWithTitle(title string) *domain.Task {
	return &domain.Task{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Title:  title,
	}
}

func titles(titles ...string) []*domain.Task {
	tasks := make([]*domain.Task, 0, len(titles))
	for _, title := range titles {
		tasks = append(tasks, taskWithTitle(title))
	}
	return tasks
}

func TestFindTaskByTitleExact(t *testing.T) {
	tasks := titles("Buy groceries", "Walk the dog", "Review documents")

	result := FindTaskByTitle("buy groceries", tasks)

	require.Equal(t, KindExact, result.Kind)
	require.NotNil(t, result.Task)
	assert.Equal(t, "Buy groceries", result.Task.Title)
}

func TestFindTaskByTitleExactIgnoresWhitespace(t *testing.T) {
	tasks := titles("Buy groceries")

	result := FindTaskByTitle("  Buy Groceries  ", tasks)

	assert.Equal(t, KindExact, result.Kind)
}

func TestFindTaskByTitleFuzzySoleMatch(t *testing.T) {
	tasks := titles("Buy groceries", "Walk the dog")

	// A near-miss of one title and nothing close to the other.
	result := FindTaskByTitle("buy groceri", tasks)

	require.Equal(t, KindFuzzy, result.Kind)
	require.NotNil(t, result.Task)
	assert.Equal(t, "Buy groceries", result.Task.Title)
}

func TestFindTaskByTitleAmbiguousSubsetQuery(t *testing.T) {
	tasks := titles(
		"Buy milk from store",
		"Buy eggs from store",
		"Buy bread from store",
	)

	// Every title contains all of the query's tokens, so all three score
	// identically and none can win on confidence.
	result := FindTaskByTitle("buy from store", tasks)

	require.Equal(t, KindAmbiguous, result.Kind)
	assert.Nil(t, result.Task)
	assert.Len(t, result.Candidates, 3)
}

func TestFindTaskByTitleAmbiguousCandidatesOrderedAndCapped(t *testing.T) {
	tasks := titles(
		"Buy milk from store",
		"Buy eggs from store",
		"Buy bread from store",
		"Buy jam from store",
		"Buy rice from store",
		"Buy tea from store",
		"Buy oil from store",
	)

	result := FindTaskByTitle("buy from store", tasks)

	require.Equal(t, KindAmbiguous, result.Kind)
	assert.Len(t, result.Candidates, 5)
	for i := 1; i < len(result.Candidates); i++ {
		assert.GreaterOrEqual(t,
			result.Candidates[i-1].Score, result.Candidates[i].Score)
	}
}

func TestFindTaskByTitleNone(t *testing.T) {
	tasks := titles("Buy groceries", "Walk the dog")

	result := FindTaskByTitle("file tax return", tasks)

	assert.Equal(t, KindNone, result.Kind)
	assert.Nil(t, result.Task)
	assert.Empty(t, result.Candidates)
}

func TestFindTaskByTitleEmptyQuery(t *testing.T) {
	tasks := titles("Buy groceries")

	assert.Equal(t, KindNone, FindTaskByTitle("", tasks).Kind)
	assert.Equal(t, KindNone, FindTaskByTitle("   ", tasks).Kind)
}

func TestFindTaskByTitleNoTasks(t *testing.T) {
	result := FindTaskByTitle("anything", nil)

	assert.Equal(t, KindNone, result.Kind)
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical strings", "buy groceries", "buy groceries", 100},
		{"word order irrelevant", "groceries buy", "buy groceries", 100},
		{"duplicate tokens irrelevant", "buy buy groceries", "buy groceries", 100},
		{"query subset of title", "buy store", "buy milk from store", 100},
		{"both empty", "", "", 100},
		{"one empty", "buy groceries", "", 0},
		{"no common characters", "aaaa", "zzzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenSetRatio(tt.a, tt.b))
		})
	}
}

func TestTokenSetRatioNearMissScoresAboveThreshold(t *testing.T) {
	score := TokenSetRatio("buy groceri", "buy groceries")

	assert.GreaterOrEqual(t, score, FuzzyThreshold)
	assert.Less(t, score, 100)
}

func TestTokenSetRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"buy groceri", "buy groceries"},
		{"walk the dog", "walk dog"},
		{"a b c", "c b"},
	}

	for _, pair := range pairs {
		assert.Equal(t,
			TokenSetRatio(pair[0], pair[1]),
			TokenSetRatio(pair[1], pair[0]),
			"asymmetric for %q / %q", pair[0], pair[1])
	}
}
