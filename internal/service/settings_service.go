package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"tcg-labeler/internal/model"
	"tcg-labeler/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// settingsService implements SettingsService.
type settingsService struct {
	repo     repository.SettingsRepository
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingsRepository, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:     repo,
		validate: newValidator(),
		logger:   logger.With().Str("service", "settings").Logger(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *settingsService) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.UserSettings{UserID: userID}, nil
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get settings")
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	masked := settings.Masked()
	return &masked, nil
}

func (s *settingsService) Save(ctx context.Context, userID string, req *model.SettingsRequest) (*model.UserSettings, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeValidation, "settings are required")
	}

	req.EasypostAPIKey = strings.TrimSpace(req.EasypostAPIKey)
	req.LogoURL = strings.TrimSpace(req.LogoURL)

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	settings := &model.UserSettings{
		UserID:         userID,
		EasypostAPIKey: req.EasypostAPIKey,
		LogoURL:        req.LogoURL,
		UpdatedAt:      model.EpochMillis(s.now()),
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to save settings")
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("settings saved")

	masked := settings.Masked()
	return &masked, nil
}

// validationError folds validator errors into one VALIDATION_FAILED error.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return model.NewDomainError(model.ErrCodeValidation, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+": "+validationMessage(fe))
	}
	return model.NewDomainError(model.ErrCodeValidation, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "printascii":
		return "must contain printable ASCII only"
	default:
		return "is invalid"
	}
}
