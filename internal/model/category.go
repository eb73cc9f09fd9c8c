package model

import "strings"

// CategoryKind is the closed set of category meanings the planner reasons
// about. Free-text category names map onto it through categoryAliases.
type CategoryKind string

const (
	CategoryWork     CategoryKind = "work"
	CategoryLearning CategoryKind = "learning"
	CategoryLife     CategoryKind = "life"
	CategoryRest     CategoryKind = "rest"
	CategoryReview   CategoryKind = "review"
	CategoryOther    CategoryKind = "other"
)

func (k CategoryKind) IsValid() bool {
	switch k {
	case CategoryWork, CategoryLearning, CategoryLife, CategoryRest, CategoryReview, CategoryOther:
		return true
	default:
		return false
	}
}

var categoryAliases = map[string]CategoryKind{
	"work":     CategoryWork,
	"job":      CategoryWork,
	"research": CategoryWork,
	"工作":       CategoryWork,
	"科研":       CategoryWork,
	"learning": CategoryLearning,
	"study":    CategoryLearning,
	"reading":  CategoryLearning,
	"学习":       CategoryLearning,
	"阅读":       CategoryLearning,
	"life":     CategoryLife,
	"personal": CategoryLife,
	"生活":       CategoryLife,
	"rest":     CategoryRest,
	"break":    CategoryRest,
	"exercise": CategoryRest,
	"休息":       CategoryRest,
	"运动":       CategoryRest,
	"review":   CategoryReview,
	"planning": CategoryReview,
	"复盘":       CategoryReview,
	"总结":       CategoryReview,
	"规划":       CategoryReview,
}

// ClassifyCategory maps a category name onto a kind by exact alias match
// after trimming and lower-casing. Unknown names are CategoryOther.
func ClassifyCategory(name string) CategoryKind {
	if kind, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return kind
	}
	return CategoryOther
}

type Category struct {
	ID    string
	Name  string
	Color string
	Kind  CategoryKind
}

// EffectiveKind prefers an explicit kind over the name-derived one.
func (c Category) EffectiveKind() CategoryKind {
	if c.Kind.IsValid() {
		return c.Kind
	}
	return ClassifyCategory(c.Name)
}

type Project struct {
	ID       string
	Name     string
	Color    string
	Priority Priority
}
