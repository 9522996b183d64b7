// Package matching 技能匹配评分与候选人排序
package matching

import "strings"

// Level 匹配等级
type Level string

const (
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
)

const (
	matchBonus = 20
	minScore   = 30
	maxScore   = 95
)

// ParseSkills 按逗号拆分技能，去掉空白和空项
func ParseSkills(skills string) []string {
	var out []string
	for _, s := range strings.Split(skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Score 技能与职位文本的匹配分，范围 [0, 100]
//
// 命中比例 = 命中技能数 / 技能总数（子串匹配，大小写不敏感）。
// 有命中时得分为 比例*100+20 并截断到 [30, 95]；无命中时为 0。
func Score(skills, jobText string) int {
	list := ParseSkills(skills)
	if len(list) == 0 {
		return 0
	}
	text := strings.ToLower(jobText)
	matches := 0
	for _, s := range list {
		if strings.Contains(text, strings.ToLower(s)) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	score := matches*100/len(list) + matchBonus
	return min(max(score, minScore), maxScore)
}

// LevelOf 高于 80 为 HIGH，高于 50 为 MEDIUM
func LevelOf(score int) Level {
	switch {
	case score > 80:
		return LevelHigh
	case score > 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// JobText 参与匹配的职位文本
func JobText(title, description string) string {
	return title + " " + description
}
