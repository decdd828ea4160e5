package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/feedback"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// PairRequest carries two texts to compare.
type PairRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// AccuracyRequest asks for positional accuracy of candidate against reference.
type AccuracyRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
	Fold      bool   `json:"fold,omitempty"`
}

// DecideRequest asks for a text-similarity authenticity decision.
type DecideRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

// FeedbackRequest asks for live typing feedback.
type FeedbackRequest struct {
	Reference string `json:"reference"`
	Typed     string `json:"typed"`
	Profile   string `json:"profile,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
}

// AuthenticateRequest is one authentication test. Attempts is the caller's
// bookkeeping from the previous response.
type AuthenticateRequest struct {
	Reference  string             `json:"reference"`
	Candidate  string             `json:"candidate"`
	Keystrokes []domain.Keystroke `json:"keystrokes,omitempty"`
	DurationMs int64              `json:"duration_ms,omitempty"`
	Attempts   scorer.Attempts    `json:"attempts"`
}

// SessionRequest is one completed training session.
type SessionRequest struct {
	Reference  string             `json:"reference"`
	Typed      string             `json:"typed"`
	Keystrokes []domain.Keystroke `json:"keystrokes"`
	DurationMs int64              `json:"duration_ms,omitempty"`
}

// DecisionResponse is the JSON form of a decision.
type DecisionResponse struct {
	Outcome         string                 `json:"outcome"`
	Authentic       bool                   `json:"authentic"`
	Score           float64                `json:"score"`
	Threshold       float64                `json:"threshold"`
	Source          string                 `json:"source"`
	CandidateLength int                    `json:"candidate_length"`
	ReferenceLength int                    `json:"reference_length"`
	RequiredLength  int                    `json:"required_length"`
	Message         string                 `json:"message,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
}

// FeedbackResponse is the JSON form of live feedback.
type FeedbackResponse struct {
	Profile     string  `json:"profile"`
	Accuracy    float64 `json:"accuracy"`
	Tier        string  `json:"tier"`
	Progress    float64 `json:"progress"`
	TypedLength int     `json:"typed_length"`
	Expected    int     `json:"expected_length"`
	WPM         int     `json:"wpm"`
	Ready       bool    `json:"ready"`
}

// AuthenticateResponse is the result of one authentication test.
type AuthenticateResponse struct {
	AttemptID string           `json:"attempt_id"`
	Decision  DecisionResponse `json:"decision"`
	Attempts  scorer.Attempts  `json:"attempts"`
	Remaining int              `json:"remaining_attempts"`
	Breach    bool             `json:"breach"`
	Alerted   bool             `json:"alerted"`
}

// SessionResponse acknowledges a stored training session.
type SessionResponse struct {
	SessionID     int    `json:"session_id"`
	TotalSessions int    `json:"total_sessions"`
	Message       string `json:"message,omitempty"`
}

// TrainResponse reports a model training run.
type TrainResponse struct {
	Trained  bool    `json:"trained"`
	Accuracy float64 `json:"accuracy"`
	Message  string  `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealthCheck responds to health check requests
func (a *API) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	response := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	writeJSONResponse(ctx, a.logger, response)
}

func (a *API) handleDistance(ctx *fasthttp.RequestCtx) {
	var req PairRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.A, req.B) {
		return
	}
	writeJSONResponse(ctx, a.logger, map[string]int{
		"distance": a.scorer.EditDistance(req.A, req.B),
	})
}

func (a *API) handleSimilarity(ctx *fasthttp.RequestCtx) {
	var req PairRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.A, req.B) {
		return
	}
	writeJSONResponse(ctx, a.logger, map[string]float64{
		"similarity": a.scorer.Similarity(req.A, req.B),
	})
}

func (a *API) handleAccuracy(ctx *fasthttp.RequestCtx) {
	var req AccuracyRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.Reference, req.Candidate) {
		return
	}
	accuracy := a.scorer.PositionalAccuracy(req.Reference, req.Candidate)
	if req.Fold {
		accuracy = a.scorer.PositionalAccuracyFold(req.Reference, req.Candidate)
	}
	writeJSONResponse(ctx, a.logger, map[string]interface{}{
		"accuracy": accuracy,
		"fold":     req.Fold,
	})
}

func (a *API) handleDecide(ctx *fasthttp.RequestCtx) {
	var req DecideRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.Reference, req.Candidate) {
		return
	}
	writeJSONResponse(ctx, a.logger, toDecisionResponse(a.scorer.Decide(req.Candidate, req.Reference)))
}

func (a *API) handleFeedback(ctx *fasthttp.RequestCtx) {
	var req FeedbackRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.Reference, req.Typed) {
		return
	}

	profile := feedback.Training
	if req.Profile != "" {
		p, ok := feedback.ProfileByName(req.Profile)
		if !ok {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			writeJSONError(ctx, a.logger, fmt.Sprintf("Unknown profile %q", req.Profile))
			return
		}
		profile = p
	}

	fb := a.scorer.Feedback(req.Reference, req.Typed, time.Duration(req.ElapsedMs)*time.Millisecond, profile)
	writeJSONResponse(ctx, a.logger, FeedbackResponse{
		Profile:     profile.Name,
		Accuracy:    fb.Accuracy,
		Tier:        string(fb.Tier),
		Progress:    fb.Progress,
		TypedLength: fb.TypedLength,
		Expected:    fb.Expected,
		WPM:         fb.WPM,
		Ready:       fb.Ready,
	})
}

func (a *API) handleAuthenticate(ctx *fasthttp.RequestCtx) {
	var req AuthenticateRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.Reference, req.Candidate) {
		return
	}

	// ctx is cancelled when the server shuts down.
	c, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	res, err := a.scorer.Authenticate(c, scorer.Attempt{
		Reference:  req.Reference,
		Candidate:  req.Candidate,
		Keystrokes: req.Keystrokes,
		Duration:   time.Duration(req.DurationMs) * time.Millisecond,
	}, req.Attempts)
	if err != nil {
		if errors.Is(err, scorer.ErrNoReference) {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			writeJSONError(ctx, a.logger, "No text to compare against")
			return
		}
		a.logger.Error("Authentication failed", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		writeJSONError(ctx, a.logger, "Authentication failed")
		return
	}

	writeJSONResponse(ctx, a.logger, AuthenticateResponse{
		AttemptID: uuid.NewString(),
		Decision:  toDecisionResponse(res.Decision),
		Attempts:  res.Attempts,
		Remaining: res.Attempts.Remaining(),
		Breach:    res.Breach,
		Alerted:   res.Alerted,
	})
}

func (a *API) handleSaveSession(ctx *fasthttp.RequestCtx) {
	var req SessionRequest
	if !a.decodePost(ctx, &req) || !a.withinLimit(ctx, req.Reference, req.Typed) {
		return
	}

	c, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	saved, err := a.scorer.SaveSession(c, scorer.Attempt{
		Reference:  req.Reference,
		Candidate:  req.Typed,
		Keystrokes: req.Keystrokes,
		Duration:   time.Duration(req.DurationMs) * time.Millisecond,
	})
	if err != nil {
		a.writeTrainingError(ctx, err)
		return
	}

	writeJSONResponse(ctx, a.logger, SessionResponse{
		SessionID:     saved.SessionID,
		TotalSessions: saved.TotalSessions,
		Message:       saved.Message,
	})
}

func (a *API) handleTrain(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		writeJSONError(ctx, a.logger, "Method not allowed")
		return
	}

	c, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	res, err := a.scorer.Train(c)
	if err != nil {
		a.writeTrainingError(ctx, err)
		return
	}

	writeJSONResponse(ctx, a.logger, TrainResponse{
		Trained:  res.Trained,
		Accuracy: res.Accuracy,
		Message:  res.Message,
	})
}

func (a *API) writeTrainingError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, scorer.ErrNoTrainer):
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		writeJSONError(ctx, a.logger, "Biometric service is not configured")
	case errors.Is(err, scorer.ErrNoReference):
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		writeJSONError(ctx, a.logger, "No text to compare against")
	case errors.Is(err, scorer.ErrNoKeystrokes):
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		writeJSONError(ctx, a.logger, "No keystrokes recorded")
	default:
		a.logger.Error("Biometric service call failed", "error", err)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		writeJSONError(ctx, a.logger, "Biometric service unavailable")
	}
}

func toDecisionResponse(d domain.Decision) DecisionResponse {
	required := int(math.Ceil(d.RequiredLength))
	resp := DecisionResponse{
		Outcome:         d.Outcome.String(),
		Authentic:       d.Authentic(),
		Score:           d.Score,
		Threshold:       d.Threshold,
		Source:          string(d.Source),
		CandidateLength: d.CandidateLength,
		ReferenceLength: d.ReferenceLength,
		RequiredLength:  required,
		Details:         d.Details,
	}
	if d.Insufficient() {
		resp.Message = fmt.Sprintf("Please type more of the text (%d/%d characters needed)", d.CandidateLength, required)
	}
	return resp
}

// decodePost enforces POST and decodes the JSON body into dst, writing the
// error response itself when it returns false.
func (a *API) decodePost(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		writeJSONError(ctx, a.logger, "Method not allowed")
		return false
	}
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		writeJSONError(ctx, a.logger, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// withinLimit rejects the request with 413 when any text is longer than the
// configured maximum. The edit distance table grows with the product of the
// two lengths.
func (a *API) withinLimit(ctx *fasthttp.RequestCtx, texts ...string) bool {
	if a.maxTextLength <= 0 {
		return true
	}
	for _, t := range texts {
		if utf8.RuneCountInString(t) > a.maxTextLength {
			ctx.SetStatusCode(fasthttp.StatusRequestEntityTooLarge)
			writeJSONError(ctx, a.logger, fmt.Sprintf("Text exceeds %d characters", a.maxTextLength))
			return false
		}
	}
	return true
}

// writeJSONResponse writes a JSON response to the context
func writeJSONResponse(ctx *fasthttp.RequestCtx, logger ports.Logger, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		logger.Error("Error marshaling JSON response", "error", err)
		writeJSONError(ctx, logger, "Internal server error")
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func writeJSONError(ctx *fasthttp.RequestCtx, logger ports.Logger, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}
