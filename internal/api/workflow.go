package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/util"
	"game-stock-advisor/console/internal/view"
)

const yearsReloadTimeout = 30 * time.Second

// ErrTrainingInProgress is returned while the train control is disabled.
var ErrTrainingInProgress = errors.New("training control is disabled")

// runTraining drives one train workflow for a session and returns the HTTP
// status to answer with. Concurrent runs from different sessions share one
// backend call.
func (s *Server) runTraining(ctx context.Context, session string, p *view.Presenter) (int, error) {
	if !p.BeginTraining() {
		workflowRuns.WithLabelValues("train", "rejected").Inc()
		return http.StatusConflict, ErrTrainingInProgress
	}
	timer := util.StartTimer()

	// A sent request cannot be aborted, even if the browser goes away.
	detached := context.WithoutCancel(ctx)
	v, err, shared := s.trainFlight.Do("train", func() (interface{}, error) {
		return s.dispatcher.SubmitTraining(detached)
	})

	fields := logrus.Fields{
		"session":     session,
		"shared":      shared,
		"duration_ms": timer.ElapsedMs(),
	}
	workflowDuration.WithLabelValues("train").Observe(timer.Elapsed().Seconds())

	var appErr *advisor.ApplicationError
	switch {
	case err == nil:
		resp := v.(advisor.TrainResponse)
		p.FinishTraining(view.TrainSucceeded, resp.Message)
		workflowRuns.WithLabelValues("train", "ok").Inc()
		logrus.WithFields(fields).Info("model training finished")
		s.reloadYears()
		return http.StatusOK, nil
	case errors.As(err, &appErr):
		p.FinishTraining(view.TrainFailed, appErr.Message)
		workflowRuns.WithLabelValues("train", "application").Inc()
		logrus.WithFields(fields).WithError(err).Warn("model training failed")
		return http.StatusBadGateway, err
	default:
		p.FinishTraining(view.TrainErrored, err.Error())
		workflowRuns.WithLabelValues("train", advisor.Describe(err)).Inc()
		logrus.WithFields(fields).WithError(err).Error("model training request failed")
		return http.StatusBadGateway, err
	}
}

// runPrediction drives one predict workflow for a session. Validation
// failures never reach the backend. A response that arrives after a newer
// run was started for the same session is dropped.
func (s *Server) runPrediction(ctx context.Context, session string, p *view.Presenter, form advisor.FormSource) (int, error) {
	req, err := advisor.CollectForm(form)
	if err != nil {
		p.ShowError(err.Error())
		workflowRuns.WithLabelValues("predict", "validation").Inc()
		return http.StatusUnprocessableEntity, err
	}

	ticket := p.NextTicket()
	timer := util.StartTimer()
	p.ShowLoading(true)
	p.HideError()

	resp, err := s.dispatcher.SubmitPrediction(context.WithoutCancel(ctx), req)
	workflowDuration.WithLabelValues("predict").Observe(timer.Elapsed().Seconds())

	fields := logrus.Fields{
		"session":     session,
		"year":        req.Year,
		"max_games":   req.MaxGames,
		"duration_ms": timer.ElapsedMs(),
	}

	if !p.Current(ticket) {
		workflowRuns.WithLabelValues("predict", "stale").Inc()
		logrus.WithFields(fields).Info("dropping superseded prediction response")
		return http.StatusOK, nil
	}

	if err != nil {
		p.ShowError(predictErrorMessage(err))
		p.ShowLoading(false)
		workflowRuns.WithLabelValues("predict", advisor.Describe(err)).Inc()
		logrus.WithFields(fields).WithError(err).Warn("prediction failed")
		return http.StatusBadGateway, err
	}

	fragment, err := s.renderer.Render(resp)
	if err != nil {
		p.ShowError(advisor.FallbackPredictError)
		p.ShowLoading(false)
		workflowRuns.WithLabelValues("predict", "render").Inc()
		logrus.WithFields(fields).WithError(err).Error("render prediction")
		return http.StatusInternalServerError, err
	}

	p.ShowResults(fragment)
	p.ShowLoading(false)
	workflowRuns.WithLabelValues("predict", "ok").Inc()
	fields["games"] = len(resp.Games)
	logrus.WithFields(fields).Info("prediction rendered")
	return http.StatusOK, nil
}

func predictErrorMessage(err error) string {
	var appErr *advisor.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An error occurred while fetching predictions: " + err.Error()
}

// reloadYears refreshes the year cache in the background once a model exists.
func (s *Server) reloadYears() {
	if s.years == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), yearsReloadTimeout)
		defer cancel()
		if err := s.years.Load(ctx); err != nil {
			logrus.WithError(err).Warn("reload years after training")
		}
	}()
}
