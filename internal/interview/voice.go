package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/jonathan/interview-coach/internal/db"
)

// ErrPermissionDenied is returned when audio capture is refused. It is the
// only capture error that blocks a voice session.
var ErrPermissionDenied = errors.New("microphone access is required for the voice interview")

// ListenTimeout bounds how long a single capture attempt waits for speech.
const ListenTimeout = 10 * time.Second

// QuestionAdvanceDelay is the pause between the transition message and the
// next question.
const QuestionAdvanceDelay = time.Second

// Voice fallback evaluation, recorded when the primary score-and-persist path
// failed and the answer would otherwise be lost.
const (
	VoiceFallbackRating   = 7
	VoiceFallbackFeedback = "Thank you for your response. Due to high system load, detailed feedback will be available later."
)

// Speaker voices interviewer messages.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Capture obtains one candidate utterance. A silent timeout returns ("", nil)
// and the caller simply listens again; a refused microphone returns
// ErrPermissionDenied.
type Capture interface {
	Listen(ctx context.Context, timeout time.Duration) (string, error)
}

// VoiceSession describes one voice interview run.
type VoiceSession struct {
	InterviewID string
	SessionID   string
	UserID      string
	Position    string
	Questions   []db.QuestionAnswer
}

// VoiceSummary reports how a completed voice session went.
type VoiceSummary struct {
	Position          string
	QuestionsAnswered int
	TotalQuestions    int
	Duration          time.Duration
}

// VoiceDriver runs an interview as a spoken question/answer loop.
type VoiceDriver struct {
	executor *Executor
	gateway  TurnGateway
	speaker  Speaker
	capture  Capture
	logger   *log.Logger

	listenTimeout time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
	now           func() time.Time
}

// NewVoiceDriver creates a VoiceDriver around an executor and its audio
// collaborators.
func NewVoiceDriver(executor *Executor, gateway TurnGateway, speaker Speaker, capture Capture) *VoiceDriver {
	return &VoiceDriver{
		executor:      executor,
		gateway:       gateway,
		speaker:       speaker,
		capture:       capture,
		logger:        log.Default(),
		listenTimeout: ListenTimeout,
		sleep:         sleepCtx,
		now:           time.Now,
	}
}

// Run executes the full voice loop: welcome, then for each question speak,
// listen, score and persist in the background, transition, advance. Returns
// the completion summary. Cancelling ctx stops speech and capture; scoring
// calls already in flight complete on their own context.
func (d *VoiceDriver) Run(ctx context.Context, session VoiceSession) (*VoiceSummary, error) {
	start := d.now()

	welcome := fmt.Sprintf(
		"Hello! Welcome to your mock interview for the %s position. I'm your AI interviewer today. We'll go through %d questions together. Let's begin with the first question.",
		session.Position, len(session.Questions),
	)
	if err := d.speaker.Speak(ctx, welcome); err != nil {
		return nil, err
	}
	if err := d.sleep(ctx, QuestionAdvanceDelay); err != nil {
		return nil, err
	}

	// In-flight saves are always drained, even when the loop stops early.
	var saves sync.WaitGroup
	defer saves.Wait()
	answered := 0

	for i, question := range session.Questions {
		prompt := fmt.Sprintf("Question %d: %s", i+1, question.Question)
		if err := d.speaker.Speak(ctx, prompt); err != nil {
			return nil, err
		}

		d.executor.BeginCapture()
		transcript, err := d.listen(ctx)
		if err != nil {
			return nil, err
		}
		answered++

		turn := Turn{
			InterviewID: session.InterviewID,
			SessionID:   session.SessionID,
			UserID:      session.UserID,
			Question:    question.Question,
			IdealAnswer: question.Answer,
		}

		// Scoring and persistence run in the background so the conversation
		// keeps moving; a stop request must not abort them mid-write.
		saves.Add(1)
		go func(turn Turn, transcript string) {
			defer saves.Done()
			d.saveAnswer(context.WithoutCancel(ctx), turn, transcript)
		}(turn, transcript)

		transition := "Thank you for your response. Let me ask you the next question."
		if i == len(session.Questions)-1 {
			transition = "Thank you for your final response. Let me provide you with the interview summary."
		}
		if err := d.speaker.Speak(ctx, transition); err != nil {
			return nil, err
		}
		if err := d.sleep(ctx, QuestionAdvanceDelay); err != nil {
			return nil, err
		}
	}

	completion := "Thank you for completing the interview. You've answered all questions. Good luck with your job search!"
	if err := d.speaker.Speak(ctx, completion); err != nil {
		return nil, err
	}

	return &VoiceSummary{
		Position:          session.Position,
		QuestionsAnswered: answered,
		TotalQuestions:    len(session.Questions),
		Duration:          d.now().Sub(start),
	}, nil
}

// listen captures one utterance, retrying silently on timeouts and transient
// capture errors. Only context cancellation and a refused microphone abort.
func (d *VoiceDriver) listen(ctx context.Context) (string, error) {
	for {
		transcript, err := d.capture.Listen(ctx, d.listenTimeout)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return "", err
			}
			d.logger.Printf("capture failed, retrying: %v", err)
			continue
		}
		if transcript == "" {
			// Silent timeout. Not an error; listen again.
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		return transcript, nil
	}
}

// saveAnswer scores and records one voice answer. If the turn write failed,
// the answer is re-recorded with the voice fallback evaluation so it is not
// lost; a second failure is only logged.
func (d *VoiceDriver) saveAnswer(ctx context.Context, turn Turn, transcript string) {
	outcome, err := d.executor.Submit(ctx, turn, transcript, ModeVoice)
	if err != nil {
		d.logger.Printf("failed to submit voice answer: %v", err)
		return
	}
	if outcome.Persisted {
		return
	}

	_, err = d.gateway.UpsertTurn(ctx, db.TurnInput{
		SessionID:       turn.SessionID,
		Question:        turn.Question,
		IdealAnswer:     turn.IdealAnswer,
		CandidateAnswer: transcript,
		Rating:          VoiceFallbackRating,
		Feedback:        VoiceFallbackFeedback,
		UserID:          turn.UserID,
	})
	if err != nil {
		d.logger.Printf("failed to save voice answer with fallback feedback: %v", err)
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
