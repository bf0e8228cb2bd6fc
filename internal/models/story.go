package models

import (
	"time"

	"github.com/google/uuid"
)

// Story - ветвящаяся история, состоящая из глав.
// Контент создается вне этого сервиса и в рантайме не меняется,
// кроме счетчиков и среднего рейтинга.
type Story struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	ThumbnailURL    string    `db:"thumbnail_url" json:"thumbnailUrl"`
	IsPremium       bool      `db:"is_premium" json:"isPremium"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	PlayCount       int64     `db:"play_count" json:"playCount"`
	CompletionCount int64     `db:"completion_count" json:"completionCount"`
	AverageRating   float64   `db:"average_rating" json:"averageRating"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`

	// Chapters заполняется только при полной загрузке истории,
	// отсортированы по ChapterNumber по возрастанию.
	Chapters []Chapter `db:"-" json:"chapters,omitempty"`
}

// Chapter - узел истории: текст плюс ноль или больше вариантов выбора.
// Глава без вариантов является терминальной.
type Chapter struct {
	ID            uuid.UUID `db:"id" json:"id"`
	StoryID       uuid.UUID `db:"story_id" json:"storyId"`
	ChapterNumber int       `db:"chapter_number" json:"chapterNumber"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	IsStart       bool      `db:"is_start" json:"isStart"`

	// Choices отсортированы по Ord, при равенстве - по ID.
	Choices []Choice `db:"-" json:"choices,omitempty"`
}

// Choice - ребро графа истории. NextChapterID == nil означает,
// что выбор завершает историю.
type Choice struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	ChapterID       uuid.UUID     `db:"chapter_id" json:"chapterId"`
	Text            string        `db:"text" json:"text"`
	Ord             int           `db:"ord" json:"order"`
	NextChapterID   *uuid.UUID    `db:"next_chapter_id" json:"nextChapterId,omitempty"`
	AffectionChange int           `db:"affection_change" json:"affectionChange"`
	XPChange        int           `db:"xp_change" json:"xpChange"`
	Requirements    []Requirement `db:"requirements" json:"requirements,omitempty"`
	SelectedCount   int64         `db:"selected_count" json:"selectedCount"`
}

// IsTerminal сообщает, завершает ли выбор историю.
func (c *Choice) IsTerminal() bool {
	return c.NextChapterID == nil
}

// RequirementType - закрытый набор типов требований к выбору.
type RequirementType string

const (
	RequirementAffection RequirementType = "affection"
	RequirementLevel     RequirementType = "level"
	RequirementPremium   RequirementType = "premium"
)

// ComparisonOp - оператор сравнения в требовании.
type ComparisonOp string

const (
	ComparisonGTE ComparisonOp = "gte"
	ComparisonLTE ComparisonOp = "lte"
	ComparisonEQ  ComparisonOp = "eq"
)

// Requirement - предикат над статами пользователя, ограничивающий выбор.
// Для типа premium Value трактуется как bool: 0 = false, иначе true.
type Requirement struct {
	Type         RequirementType `json:"type"`
	Comparison   ComparisonOp    `json:"comparison"`
	Value        int             `json:"value"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// StorySummary - элемент каталога с прогрессом текущего пользователя.
type StorySummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	IsPremium     bool      `json:"isPremium"`
	PlayCount     int64     `json:"playCount"`
	AverageRating float64   `json:"averageRating"`

	// Прогресс вызывающего пользователя, если он начинал историю.
	Started              bool       `json:"started"`
	Completed            bool       `json:"completed"`
	CurrentChapterNumber *int       `json:"currentChapterNumber,omitempty"`
	LastPlayedAt         *time.Time `json:"lastPlayedAt,omitempty"`
}

// StoryStats - агрегированная статистика по истории.
type StoryStats struct {
	StoryID         uuid.UUID       `json:"storyId"`
	PlayCount       int64           `json:"playCount"`
	CompletionCount int64           `json:"completionCount"`
	CompletionRate  float64         `json:"completionRate"`
	AverageRating   float64         `json:"averageRating"`
	PopularChoices  []PopularChoice `json:"popularChoices"`
}

// PopularChoice - элемент рейтинга выборов по selected_count.
type PopularChoice struct {
	ChoiceID      uuid.UUID `json:"choiceId"`
	ChapterID     uuid.UUID `json:"chapterId"`
	Text          string    `json:"text"`
	SelectedCount int64     `json:"selectedCount"`
}
