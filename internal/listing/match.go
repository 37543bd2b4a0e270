package listing

import (
	"strings"
	"sync"

	"github.com/csams/podcast-admin/internal/models"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

var algoInit sync.Once

// findFold returns the rune range of an occurrence of pattern in text
// ignoring case, or -1 when there is none. The pattern must already be lower
// case.
func findFold(text, pattern string) (int, int) {
	algoInit.Do(func() { algo.Init("default") })

	// Folding per rune keeps positions aligned with text.
	chars := util.ToChars([]byte(text))
	result, _ := algo.ExactMatchNaive(false, false, true, &chars, []rune(pattern), false, nil)
	return int(result.Start), int(result.End)
}

func containsFold(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	start, _ := findFold(text, pattern)
	return start >= 0
}

// Highlight returns the rune positions of a case-insensitive occurrence of
// filter in text. Occurrences at word boundaries are preferred.
func Highlight(text, filter string) []int {
	if filter == "" {
		return nil
	}
	start, end := findFold(text, strings.ToLower(filter))
	if start < 0 {
		return nil
	}
	positions := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		positions = append(positions, i)
	}
	return positions
}

// Matches reports whether the episode's title, description or date contains
// filter, case-insensitively.
func Matches(ep *models.Episode, filter string) bool {
	pattern := strings.ToLower(filter)
	return containsFold(ep.Title, pattern) ||
		containsFold(ep.Description, pattern) ||
		containsFold(ep.Date, pattern)
}
