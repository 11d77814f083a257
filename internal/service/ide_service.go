package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/observability"
	"github.com/noah-isme/gema-ide-api/internal/session"
)

var (
	// ErrNoProblemAvailable indicates there is no active problem to work on.
	ErrNoProblemAvailable = errors.New("no active problem available")
	// ErrInvalidRunMode indicates an unknown run mode.
	ErrInvalidRunMode = errors.New("invalid run mode")
)

// IDEService drives the per-user IDE session.
type IDEService interface {
	Navigator(ctx context.Context, userID string) (dto.NavigatorResponse, error)
	Session(ctx context.Context, userID string) (dto.SessionResponse, error)
	SelectProblem(ctx context.Context, userID string, payload dto.SelectProblemRequest) (dto.SessionResponse, error)
	UpdateCode(ctx context.Context, userID string, payload dto.UpdateCodeRequest) (dto.SessionResponse, error)
	ToggleNavigator(ctx context.Context, userID string) (dto.SessionResponse, error)
	ClearConsole(ctx context.Context, userID string) (dto.SessionResponse, error)
	Execute(ctx context.Context, userID string, payload dto.ExecuteRequest, listeners ...execution.ConsoleListener) (dto.ExecuteResponse, error)
	Run(ctx context.Context, userID string, mode session.Mode, listeners ...execution.ConsoleListener) (dto.RunResponse, error)
}

type ideService struct {
	problems  ProblemService
	store     session.Store
	machine   *session.Machine
	verdicts  VerdictService
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewIDEService wires the session store and machine to the catalogue. A nil
// verdict service skips verdict fan-out.
func NewIDEService(problems ProblemService, store session.Store, machine *session.Machine, verdicts VerdictService, validate *validator.Validate, logger zerolog.Logger) IDEService {
	return &ideService{
		problems:  problems,
		store:     store,
		machine:   machine,
		verdicts:  verdicts,
		validator: validate,
		tracer:    otel.Tracer("github.com/noah-isme/gema-ide-api/internal/service/ide"),
		logger:    logger.With().Str("component", "ide_service").Logger(),
	}
}

func (s *ideService) Navigator(ctx context.Context, userID string) (dto.NavigatorResponse, error) {
	problems, err := s.problems.ListActive(ctx)
	if err != nil {
		return dto.NavigatorResponse{}, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return dto.NavigatorResponse{}, err
	}

	response := dto.NavigatorResponse{
		Items:     make([]dto.NavigatorItem, 0, len(problems)),
		Total:     len(problems),
		Collapsed: state.NavCollapsed,
	}
	for _, problem := range problems {
		status := state.ProblemStatus(problem.ID)
		if status == session.StatusSolved {
			response.SolvedCount++
		}
		response.Items = append(response.Items, dto.NavigatorItem{
			ID:         problem.ID,
			Title:      problem.Title,
			Difficulty: problem.Difficulty,
			OrderIndex: problem.OrderIndex,
			Status:     status,
			Active:     problem.ID == state.ProblemID,
		})
	}
	return response, nil
}

func (s *ideService) Session(ctx context.Context, userID string) (dto.SessionResponse, error) {
	state, problem, err := s.loadState(ctx, userID)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	return s.render(ctx, state, problem)
}

func (s *ideService) SelectProblem(ctx context.Context, userID string, payload dto.SelectProblemRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}
	if err := s.ensureIdle(ctx, userID); err != nil {
		return dto.SessionResponse{}, err
	}

	problem, err := s.problems.Get(ctx, strings.TrimSpace(payload.ProblemID))
	if err != nil {
		return dto.SessionResponse{}, err
	}

	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	state = session.SelectProblem(state, problem.ID, problem.BoilerplateCode)
	if err := s.store.Save(ctx, state); err != nil {
		return dto.SessionResponse{}, err
	}
	return s.render(ctx, state, &problem)
}

func (s *ideService) UpdateCode(ctx context.Context, userID string, payload dto.UpdateCodeRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}
	if err := s.ensureIdle(ctx, userID); err != nil {
		return dto.SessionResponse{}, err
	}
	return s.mutate(ctx, userID, func(state session.State) session.State {
		return session.UpdateCode(state, payload.Code)
	})
}

func (s *ideService) ToggleNavigator(ctx context.Context, userID string) (dto.SessionResponse, error) {
	return s.mutate(ctx, userID, session.ToggleNavigator)
}

func (s *ideService) ClearConsole(ctx context.Context, userID string) (dto.SessionResponse, error) {
	if err := s.ensureIdle(ctx, userID); err != nil {
		return dto.SessionResponse{}, err
	}
	return s.mutate(ctx, userID, session.ClearConsole)
}

func (s *ideService) Execute(ctx context.Context, userID string, payload dto.ExecuteRequest, listeners ...execution.ConsoleListener) (dto.ExecuteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExecuteResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "ide.execute", trace.WithAttributes(attribute.String("ide.user_id", userID)))
	defer span.End()

	var (
		state   session.State
		problem *dto.ProblemResponse
		result  execution.Result
	)
	err := s.withRunLock(ctx, userID, func() error {
		var err error
		state, problem, err = s.loadState(ctx, userID)
		if err != nil {
			return err
		}

		state, result, err = s.machine.Execute(ctx, state, payload.Input, listeners...)
		if err != nil {
			return err
		}

		outcome := "ok"
		if result.Failed() {
			outcome = "error"
		}
		observability.Runs().WithLabelValues("execute", outcome).Inc()

		state, err = s.commit(ctx, userID, state)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "execute_failed")
		return dto.ExecuteResponse{}, err
	}

	rendered, err := s.render(ctx, state, problem)
	if err != nil {
		return dto.ExecuteResponse{}, err
	}

	return dto.ExecuteResponse{
		Output:    result.Output,
		Error:     result.Error,
		ElapsedMS: result.Elapsed.Round(time.Millisecond).Milliseconds(),
		Session:   rendered,
	}, nil
}

func (s *ideService) Run(ctx context.Context, userID string, mode session.Mode, listeners ...execution.ConsoleListener) (dto.RunResponse, error) {
	if mode != session.ModeRun && mode != session.ModeSubmit {
		return dto.RunResponse{}, ErrInvalidRunMode
	}

	ctx, span := s.tracer.Start(ctx, "ide."+string(mode), trace.WithAttributes(attribute.String("ide.user_id", userID)))
	defer span.End()

	var (
		state   session.State
		problem *dto.ProblemResponse
	)
	response := dto.RunResponse{Mode: mode}
	err := s.withRunLock(ctx, userID, func() error {
		var err error
		state, problem, err = s.loadState(ctx, userID)
		if err != nil {
			return err
		}
		if problem == nil {
			return ErrNoProblemAvailable
		}

		cases, err := s.problems.TestCases(ctx, problem.ID)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.String("ide.problem_id", problem.ID), attribute.Int("ide.cases", len(cases)))

		state, response.Ran, err = s.machine.Run(ctx, state, mode, dto.ToExecutionCases(cases), listeners...)
		if err != nil || !response.Ran {
			return err
		}

		response.Passed = execution.CountPassed(state.Results)
		response.Total = len(state.Results)
		s.recordRun(mode, response.Passed, response.Total)

		state, err = s.commit(ctx, userID, state)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(mode)+"_failed")
		return dto.RunResponse{}, err
	}

	if response.Ran && mode == session.ModeSubmit && state.Verdict != nil {
		response.Verdict = state.Verdict
		s.publishVerdict(ctx, userID, problem.Title, *state.Verdict)
	}

	rendered, err := s.render(ctx, state, problem)
	if err != nil {
		return dto.RunResponse{}, err
	}
	response.Session = rendered
	return response, nil
}

// loadState returns the stored state with the active problem resolved. A
// session without a valid problem lands on the first active one.
func (s *ideService) loadState(ctx context.Context, userID string) (session.State, *dto.ProblemResponse, error) {
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return session.State{}, nil, err
	}

	if state.ProblemID != "" {
		problem, err := s.problems.Get(ctx, state.ProblemID)
		if err == nil {
			return state, &problem, nil
		}
		if !errors.Is(err, ErrProblemNotFound) {
			return session.State{}, nil, err
		}
	}

	problems, err := s.problems.ListActive(ctx)
	if err != nil {
		return session.State{}, nil, err
	}
	if len(problems) == 0 {
		return state, nil, nil
	}

	first := problems[0]
	state = session.SelectProblem(state, first.ID, first.BoilerplateCode)
	if err := s.store.Save(ctx, state); err != nil {
		return session.State{}, nil, err
	}
	return state, &first, nil
}

func (s *ideService) mutate(ctx context.Context, userID string, transition func(session.State) session.State) (dto.SessionResponse, error) {
	state, problem, err := s.loadState(ctx, userID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	state = transition(state)
	if err := s.store.Save(ctx, state); err != nil {
		return dto.SessionResponse{}, err
	}
	return s.render(ctx, state, problem)
}

func (s *ideService) render(ctx context.Context, state session.State, problem *dto.ProblemResponse) (dto.SessionResponse, error) {
	var cases []execution.TestCase
	if problem != nil {
		stored, err := s.problems.TestCases(ctx, problem.ID)
		if err != nil {
			return dto.SessionResponse{}, err
		}
		cases = dto.ToExecutionCases(stored)
	}

	running, err := s.store.IsRunning(ctx, state.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", state.UserID).Msg("failed to read run lock")
	}
	return dto.NewSessionResponse(state, problem, cases, running), nil
}

// ensureIdle rejects buffer and problem changes while a run holds the lock.
// The navigator toggle skips it since commit keeps that flag.
func (s *ideService) ensureIdle(ctx context.Context, userID string) error {
	running, err := s.store.IsRunning(ctx, userID)
	if err != nil {
		return err
	}
	if running {
		return session.ErrRunInProgress
	}
	return nil
}

// commit merges a finished run into the state stored now, so writes that
// landed during evaluation are kept.
func (s *ideService) commit(ctx context.Context, userID string, finished session.State) (session.State, error) {
	latest, err := s.store.Load(ctx, userID)
	if err != nil {
		return session.State{}, err
	}
	merged, err := session.MergeRun(latest, finished)
	if err != nil {
		return latest, err
	}
	if err := s.store.Save(ctx, merged); err != nil {
		return session.State{}, err
	}
	return merged, nil
}

// withRunLock holds the per-user running lock for the duration of fn.
func (s *ideService) withRunLock(ctx context.Context, userID string, fn func() error) error {
	token, err := s.store.AcquireRun(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrRunInProgress) {
			observability.Runs().WithLabelValues("any", "rejected").Inc()
		}
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.store.ReleaseRun(releaseCtx, userID, token); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to release run lock")
		}
	}()

	return fn()
}

func (s *ideService) recordRun(mode session.Mode, passed, total int) {
	outcome := "failed"
	if passed == total {
		outcome = "passed"
	}
	observability.Runs().WithLabelValues(string(mode), outcome).Inc()
	observability.TestCasesEvaluated().WithLabelValues("passed").Add(float64(passed))
	observability.TestCasesEvaluated().WithLabelValues("failed").Add(float64(total - passed))
}

func (s *ideService) publishVerdict(ctx context.Context, userID, title string, verdict session.Verdict) {
	if s.verdicts == nil {
		return
	}
	err := s.verdicts.Publish(ctx, dto.VerdictNotification{
		UserID:       userID,
		ProblemTitle: title,
		Verdict:      verdict,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("problem_id", verdict.ProblemID).Msg("verdict not fanned out")
	}
}
