package service

import "errors"

var (
	// ErrChapterMismatch - выбор отправлен для главы, которая не является
	// текущей для этого пользователя (устаревшее состояние клиента или replay).
	ErrChapterMismatch = errors.New("chapter is not the current chapter of this story")

	// ErrStoryAlreadyCompleted - история уже завершена; до нового старта
	// выборы не принимаются.
	ErrStoryAlreadyCompleted = errors.New("story is already completed, start it again to replay")

	// ErrInvalidChoice - выбор не принадлежит указанной главе.
	ErrInvalidChoice = errors.New("choice does not belong to the specified chapter")

	// ErrRequirementNotMet - требование выбора не выполнено. Оборачивается
	// через fmt.Errorf("%w: <reason>") с человекочитаемой причиной.
	ErrRequirementNotMet = errors.New("choice requirement not met")

	// ErrProgressConflict - конкурентное изменение строки прогресса;
	// клиенту следует перечитать текущую главу и повторить.
	ErrProgressConflict = errors.New("story progress was modified concurrently")

	// ErrStoryNotCompleted - оценка возможна только после завершения истории.
	ErrStoryNotCompleted = errors.New("story must be completed before rating")

	// ErrInvalidRating - оценка вне диапазона 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)
