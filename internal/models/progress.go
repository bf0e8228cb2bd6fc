package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStoryProgress хранит позицию и историю пользователя внутри одной истории.
// Одна строка на пару (user, story); единственный мутатор - движок прогрессии.
type UserStoryProgress struct {
	ID                   uuid.UUID      `db:"id" json:"id"`
	UserID               uuid.UUID      `db:"user_id" json:"userId"`
	StoryID              uuid.UUID      `db:"story_id" json:"storyId"`
	CurrentChapterID     uuid.UUID      `db:"current_chapter_id" json:"currentChapterId"`
	CompletedChapterIDs  []uuid.UUID    `db:"completed_chapter_ids" json:"completedChapterIds"`
	ChoicesMade          []ChoiceRecord `db:"choices_made" json:"choicesMade"`
	TotalAffectionGained int            `db:"total_affection_gained" json:"totalAffectionGained"`
	TotalXPGained        int            `db:"total_xp_gained" json:"totalXpGained"`
	StartedAt            time.Time      `db:"started_at" json:"startedAt"`
	LastPlayedAt         time.Time      `db:"last_played_at" json:"lastPlayedAt"`
	CompletedAt          *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
	Rating               *int           `db:"rating" json:"rating,omitempty"`
	PlayTimeSeconds      int64          `db:"play_time_seconds" json:"playTimeSeconds"`

	// Version используется для оптимистической блокировки строки.
	// Две конкурентных попытки сделать выбор из одной и той же главы
	// не могут пройти обе: вторая получает конфликт версии.
	Version int64 `db:"version" json:"-"`
}

// ChoiceRecord - одна запись в append-only журнале сделанных выборов.
type ChoiceRecord struct {
	ChapterID uuid.UUID `json:"chapterId"`
	ChoiceID  uuid.UUID `json:"choiceId"`
	Timestamp time.Time `json:"timestamp"`
}

// IsCompleted сообщает, завершена ли история этим пользователем.
func (p *UserStoryProgress) IsCompleted() bool {
	return p.CompletedAt != nil
}

// HasCompletedChapter проверяет, была ли глава уже пройдена.
func (p *UserStoryProgress) HasCompletedChapter(chapterID uuid.UUID) bool {
	for _, id := range p.CompletedChapterIDs {
		if id == chapterID {
			return true
		}
	}
	return false
}

// ChoiceRewards - начисления за принятый выбор.
type ChoiceRewards struct {
	Affection int `json:"affection"`
	XP        int `json:"xp"`
}

// ChoiceResult - результат успешно принятого выбора.
type ChoiceResult struct {
	Progress        *UserStoryProgress `json:"progress"`
	NextChapter     *Chapter           `json:"nextChapter,omitempty"`
	Rewards         ChoiceRewards      `json:"rewards"`
	IsStoryComplete bool               `json:"isStoryComplete"`
}
