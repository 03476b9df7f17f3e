package application

import (
	"context"
	"errors"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/auctionlabs/command-server/internal/domain/command"
	"github.com/auctionlabs/command-server/internal/domain/entity"
	"github.com/auctionlabs/command-server/internal/domain/identifier"
	"github.com/auctionlabs/command-server/internal/domain/repository"
	"github.com/auctionlabs/command-server/internal/domain/valueobject"
	"github.com/auctionlabs/command-server/pkg/helpers"
	"github.com/auctionlabs/command-server/pkg/mailer"
)

// Service is the command dispatcher: one entry point per command variant.
// Every domain failure is converted to a typed command.Result here; no error
// crosses this boundary unconverted. The dispatcher holds no cross-command
// state and never retries on its own.
type Service struct {
	Users       repository.UserRepository
	Constraints repository.ConstraintSet
	IDs         identifier.Factory
	Logger      *logrus.Logger

	// Pub is optional; when set, a verification email job is published after
	// a successful registration.
	Pub            *helpers.RabbitPublisher
	VerifyEmailURL string
}

func NewService(users repository.UserRepository, constraints repository.ConstraintSet, ids identifier.Factory, logger *logrus.Logger) *Service {
	return &Service{
		Users:       users,
		Constraints: constraints,
		IDs:         ids,
		Logger:      logger,
	}
}

// RegisterUser validates the command, reserves the identity attributes,
// creates the aggregate and persists its initial event. If the persist fails
// after a successful reservation, the reservation is released so the
// username and email stay available.
func (s *Service) RegisterUser(ctx context.Context, cmd command.RegisterUser) command.Result {
	username, err := valueobject.NewUsername(cmd.Username)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}
	email, err := valueobject.NewEmailAddress(cmd.Email)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}
	password, err := valueobject.NewPassword(cmd.Password)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}

	id := s.IDs.New()

	if err := s.Constraints.Reserve(ctx, username.String(), email.String(), id); err != nil {
		return s.failure("RegisterUser", err)
	}

	user, err := entity.Register(id, username, password, email)
	if err == nil {
		err = s.Users.Add(ctx, user)
	}
	if err != nil {
		if relErr := s.Constraints.Release(ctx, username.String(), email.String()); relErr != nil {
			s.Logger.WithError(relErr).WithFields(logrus.Fields{
				"username": username.String(),
			}).Error("release reservation after failed registration")
		}
		return s.failure("RegisterUser", err)
	}

	s.publishVerificationEmail(ctx, user)

	s.Logger.WithFields(logrus.Fields{
		"aggregate_id": user.ID(),
		"username":     username.String(),
	}).Info("user registered")
	return command.AggregateIDResult(user.ID())
}

// ChangePassword loads the aggregate, applies the password change and saves
// with the version read at load time.
func (s *Service) ChangePassword(ctx context.Context, cmd command.ChangePassword) command.Result {
	id, err := s.IDs.Parse(cmd.AggregateID)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}
	oldPassword, err := valueobject.NewPassword(cmd.OldPassword)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}
	newPassword, err := valueobject.NewPassword(cmd.NewPassword)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}

	user, err := s.Users.Load(ctx, id)
	if err != nil {
		return s.failure("ChangePassword", err)
	}
	loadedVersion := user.Version()

	if err := user.ChangePassword(oldPassword, newPassword); err != nil {
		return s.failure("ChangePassword", err)
	}
	if err := s.Users.Save(ctx, user, loadedVersion); err != nil {
		return s.failure("ChangePassword", err)
	}

	s.Logger.WithField("aggregate_id", id).Info("password changed")
	return command.VoidSuccess()
}

// VerifyEmail loads the aggregate, verifies the security token and saves
// with the version read at load time.
func (s *Service) VerifyEmail(ctx context.Context, cmd command.VerifyEmail) command.Result {
	id, err := s.IDs.Parse(cmd.AggregateID)
	if err != nil {
		return command.Failure(command.KindInvalidCommand, err.Error())
	}
	if cmd.SecurityToken == "" {
		return command.Failure(command.KindInvalidCommand, "security token is required")
	}

	user, err := s.Users.Load(ctx, id)
	if err != nil {
		return s.failure("VerifyEmail", err)
	}
	loadedVersion := user.Version()

	if err := user.VerifyEmail(cmd.SecurityToken); err != nil {
		return s.failure("VerifyEmail", err)
	}
	if err := s.Users.Save(ctx, user, loadedVersion); err != nil {
		return s.failure("VerifyEmail", err)
	}

	s.Logger.WithField("aggregate_id", id).Info("email verified")
	return command.VoidSuccess()
}

// failure maps domain errors to typed results. Unexpected errors are logged
// with full context and surfaced only as a generic internal error.
func (s *Service) failure(op string, err error) command.Result {
	switch {
	case errors.Is(err, repository.ErrUsernameEmailComboExists):
		return command.Failure(command.KindUsernameEmailComboExists, err.Error())
	case errors.Is(err, repository.ErrUsernameExists):
		return command.Failure(command.KindUsernameExists, err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		return command.Failure(command.KindEmailExists, err.Error())
	case errors.Is(err, repository.ErrAggregateNotFound):
		return command.Failure(command.KindIDNotFound, err.Error())
	case errors.Is(err, repository.ErrConcurrencyConflict):
		return command.Failure(command.KindConcurrencyConflict, err.Error())
	case errors.Is(err, entity.ErrPasswordMismatch):
		return command.Failure(command.KindPasswordMismatch, err.Error())
	case errors.Is(err, entity.ErrEmailVerificationFailed):
		return command.Failure(command.KindEmailVerificationFailed, err.Error())
	case errors.Is(err, entity.ErrAlreadyVerified):
		return command.Failure(command.KindIllegalStateTransition, err.Error())
	default:
		s.Logger.WithError(err).WithField("op", op).Error("command processing failed")
		return command.Failure(command.KindInternalError, "internal error")
	}
}

func (s *Service) publishVerificationEmail(ctx context.Context, user *entity.User) {
	if s.Pub == nil || s.VerifyEmailURL == "" {
		return
	}

	q := url.Values{}
	q.Set("id", user.ID())
	q.Set("token", user.SecurityToken())
	link := s.VerifyEmailURL + "?" + q.Encode()

	job := mailer.EmailJob{
		To:      user.Email().String(),
		Subject: "Verify your email address",
		Text:    "Welcome, " + user.Username().String() + "! Confirm your email address by opening: " + link,
	}
	// Email delivery failing must not fail the registration; the user can
	// request a new verification email later.
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("aggregate_id", user.ID()).Warn("enqueue verification email")
	}
}
