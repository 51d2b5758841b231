package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quiz_live"

// Metrics groups the gameplay collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry setup.
type Metrics struct {
	sessionsCreated   prometheus.Counter
	playersJoined     *prometheus.CounterVec
	answers           *prometheus.CounterVec
	answerElapsed     prometheus.Histogram
	questionsResolved *prometheus.CounterVec
	gamesFinished     *prometheus.CounterVec
}

// New registers the gameplay collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created through the store.",
		}),
		playersJoined: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_joined_total",
			Help:      "Join attempts by outcome.",
		}, []string{"result"}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer submissions by outcome.",
		}, []string{"result"}),
		answerElapsed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_elapsed_seconds",
			Help:      "Time from question start to accepted answer.",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 45, 60},
		}),
		questionsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_resolved_total",
			Help:      "Question resolutions by trigger.",
		}, []string{"trigger"}),
		gamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached the end, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) PlayerJoined(result string) {
	if m == nil {
		return
	}
	m.playersJoined.WithLabelValues(result).Inc()
}

// AnswerAccepted records an accepted answer and how long into the question it came.
func (m *Metrics) AnswerAccepted(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues("accepted").Inc()
	m.answerElapsed.Observe(elapsed.Seconds())
}

func (m *Metrics) AnswerRejected(reason string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(reason).Inc()
}

func (m *Metrics) QuestionResolved(trigger string) {
	if m == nil {
		return
	}
	m.questionsResolved.WithLabelValues(trigger).Inc()
}

func (m *Metrics) GameFinished(reason string) {
	if m == nil {
		return
	}
	m.gamesFinished.WithLabelValues(reason).Inc()
}
