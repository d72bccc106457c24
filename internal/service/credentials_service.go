package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	config "github.com/arjndr/postpilot/configs"
	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/repository"
	"github.com/arjndr/postpilot/internal/transfer"
	"github.com/arjndr/postpilot/internal/twitter"
	"github.com/arjndr/postpilot/pkg/utils"
)

type CredentialsService interface {
	Save(ctx context.Context, userID int64, cu *transfer.CredentialsUpdate) error
	Get(ctx context.Context, userID int64) (twitter.Credentials, string, bool, error)
	Status(ctx context.Context, userID int64) (map[string]any, error)
	Remove(ctx context.Context, userID int64) error
}

type credentialsService struct {
	cfg config.Config
	cr  repository.CredentialsRepository
}

func NewCredentialsService(cfg config.Config, cr repository.CredentialsRepository) CredentialsService {
	return &credentialsService{
		cfg: cfg,
		cr:  cr,
	}
}

func (s *credentialsService) Save(ctx context.Context, userID int64, cu *transfer.CredentialsUpdate) error {
	if cu == nil {
		return errors.New("credentials are required")
	}
	if cu.APIKey == "" || cu.APISecret == "" || cu.AccessToken == "" || cu.AccessSecret == "" {
		err := errors.New("all four credential values are required")
		slog.Info(err.Error())
		return err
	}

	handle := strings.TrimPrefix(strings.TrimSpace(cu.Handle), "@")

	key := []byte(s.cfg.SecretKey)
	creds := &models.TwitterCredentials{
		UserID: userID,
		Handle: handle,
		APIKey: cu.APIKey,
	}

	var err error
	if creds.APISecret, err = utils.Encrypt([]byte(cu.APISecret), key); err != nil {
		return err
	}
	if creds.AccessToken, err = utils.Encrypt([]byte(cu.AccessToken), key); err != nil {
		return err
	}
	if creds.AccessSecret, err = utils.Encrypt([]byte(cu.AccessSecret), key); err != nil {
		return err
	}

	return s.cr.Upsert(ctx, creds)
}

// Get returns the decrypted signing material plus the account handle. The
// second-to-last return is false when the user never connected an account.
func (s *credentialsService) Get(ctx context.Context, userID int64) (twitter.Credentials, string, bool, error) {
	stored, isExist, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return twitter.Credentials{}, "", false, err
	}
	if !isExist {
		return twitter.Credentials{}, "", false, nil
	}

	key := []byte(s.cfg.SecretKey)
	creds := twitter.Credentials{APIKey: stored.APIKey}

	if creds.APISecret, err = utils.Decrypt(stored.APISecret, key); err != nil {
		return twitter.Credentials{}, "", false, err
	}
	if creds.AccessToken, err = utils.Decrypt(stored.AccessToken, key); err != nil {
		return twitter.Credentials{}, "", false, err
	}
	if creds.AccessSecret, err = utils.Decrypt(stored.AccessSecret, key); err != nil {
		return twitter.Credentials{}, "", false, err
	}

	return creds, stored.Handle, true, nil
}

func (s *credentialsService) Status(ctx context.Context, userID int64) (map[string]any, error) {
	stored, isExist, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return map[string]any{"connected": false}, nil
	}
	return map[string]any{
		"connected": true,
		"handle":    stored.Handle,
	}, nil
}

func (s *credentialsService) Remove(ctx context.Context, userID int64) error {
	return s.cr.Remove(ctx, userID)
}
