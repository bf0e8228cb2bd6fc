package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	choicesResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_choices_resolved_total",
		Help: "Количество принятых выборов.",
	})
	storiesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_completions_total",
		Help: "Количество завершений историй.",
	})
)
