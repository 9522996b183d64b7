package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		skills  string
		jobText string
		want    int
	}{
		{"一半命中", "Java, Spring Boot", "Senior Java Developer needed", 70},
		{"无技能", "", "anything", 0},
		{"只有逗号和空白", " , ,", "Go developer", 0},
		{"无命中", "Python", "Java role only", 0},
		{"全部命中截断到上限", "Go, SQL", "Go developer with SQL", 95},
		{"低命中抬到下限", strings.Repeat("x, ", 19) + "Go", "Go developer", 30},
		{"三分之一命中", "Go, Rust, Haskell", "golang engineer", 53},
		{"大小写不敏感", "KUBERNETES", "we run kubernetes", 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.skills, tt.jobText))
		})
	}
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, LevelHigh, LevelOf(95))
	assert.Equal(t, LevelMedium, LevelOf(80))
	assert.Equal(t, LevelMedium, LevelOf(51))
	assert.Equal(t, LevelLow, LevelOf(50))
	assert.Equal(t, LevelLow, LevelOf(0))
}

func TestParseSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL"}, ParseSkills(" Go ,, SQL ,"))
	assert.Nil(t, ParseSkills(""))
}
