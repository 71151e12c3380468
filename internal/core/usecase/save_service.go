package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/clarify"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

// ErrorCodeLayout formats the local timestamp used as an error code.
const ErrorCodeLayout = "2006-01-02T15:04:05.000"

const (
	cannotValidateMessage = "Cannot validate the data."
	cannotUpdateMessage   = "Cannot update the data."
)

// PersistFunc performs one commit.
type PersistFunc func(ctx context.Context) error

// SaveService runs a commit and turns validation and update failures into a
// *domain.SaveError whose message names the offending field when possible.
// Any other failure, cancellation included, is returned as is.
type SaveService struct {
	logger *zap.Logger
	now    func() time.Time
}

type SaveOption func(*SaveService)

// WithClock replaces the clock the error code is taken from.
func WithClock(now func() time.Time) SaveOption {
	return func(s *SaveService) {
		s.now = now
	}
}

func NewSaveService(logger *zap.Logger, opts ...SaveOption) *SaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SaveService{
		logger: logger.With(zap.String("component", "save")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SaveService) Save(ctx context.Context, persist PersistFunc, tracker ports.ChangeTracker) error {
	err := persist(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	switch domain.ClassifyFailure(err) {
	case domain.FailureValidation:
		var ve *domain.ValidationError
		errors.As(err, &ve)
		code := s.errorCode()
		clarified, ok := clarify.TranslateValidation(ve.Groups, code)
		return s.fail(domain.FailureValidation, code, cannotValidateMessage, clarified, ok, err)

	case domain.FailureUpdate:
		var ue *domain.UpdateError
		errors.As(err, &ue)
		code := s.errorCode()
		clarified, ok := clarify.TranslateUpdate(domain.NewUpdateFailureChain(ue.Err), changedEntries(tracker), code)
		return s.fail(domain.FailureUpdate, code, cannotUpdateMessage, clarified, ok, err)

	default:
		return err
	}
}

func (s *SaveService) fail(kind domain.FailureKind, code, reason, clarified string, ok bool, cause error) error {
	basic := "Error code " + code + ". " + reason
	s.logger.Error(basic, zap.String("error_code", code), zap.Stringer("failure", kind))

	message := basic
	if ok {
		s.logger.Error(clarified, zap.String("error_code", code), zap.Error(cause))
		message = clarified
	}
	return domain.NewSaveError(kind, code, message, cause)
}

func (s *SaveService) errorCode() string {
	return s.now().Format(ErrorCodeLayout)
}

func changedEntries(tracker ports.ChangeTracker) []domain.EntitySnapshot {
	if tracker == nil {
		return nil
	}
	var out []domain.EntitySnapshot
	for _, entry := range tracker.Entries() {
		if st := entry.State(); st == domain.StateAdded || st == domain.StateModified {
			out = append(out, entry)
		}
	}
	return out
}
