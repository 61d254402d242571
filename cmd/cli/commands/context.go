package commands

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/portalsekolah/spmb/internal/config"
	"github.com/portalsekolah/spmb/pkg/clients/gmailclient"
	"github.com/portalsekolah/spmb/pkg/clients/sheetsclient"
	"github.com/portalsekolah/spmb/pkg/lock"
	"github.com/portalsekolah/spmb/pkg/metrics"
	"github.com/portalsekolah/spmb/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	OAuthCfg *config.OAuthClientConfig
	Database *postgres.DB
	Locker   lock.Locker
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Ctx      context.Context

	// Google clients are created on first use so that database-only commands never
	// start the OAuth flow
	googleOnce   sync.Once
	googleErr    error
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
}

// SheetsClient returns the Sheets client, authenticating on first use
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if err := a.initGoogle(); err != nil {
		return nil, err
	}
	return a.sheetsClient, nil
}

// GmailClient returns the Gmail client, authenticating on first use
func (a *AppContext) GmailClient() (*gmailclient.Client, error) {
	if err := a.initGoogle(); err != nil {
		return nil, err
	}
	return a.gmailClient, nil
}

func (a *AppContext) initGoogle() error {
	a.googleOnce.Do(func() {
		if a.OAuthCfg == nil {
			a.Logger.Debug("Loading OAuth client configuration")
			a.OAuthCfg, a.googleErr = config.LoadOAuthClientWithEnv(a.Env)
			if a.googleErr != nil {
				a.googleErr = fmt.Errorf("failed to load OAuth client config: %w", a.googleErr)
				return
			}
		}

		a.Logger.Debug("Initializing sheets client")
		a.sheetsClient, a.googleErr = sheetsclient.NewClient(a.Ctx, a.OAuthCfg, a.Env, a.Logger)
		if a.googleErr != nil {
			a.googleErr = fmt.Errorf("failed to create sheets client: %w", a.googleErr)
			return
		}

		// Shares the token obtained by the sheets client
		a.Logger.Debug("Initializing gmail client")
		a.gmailClient, a.googleErr = gmailclient.NewClient(a.Ctx, a.OAuthCfg, a.sheetsClient.Token(), a.Cfg)
		if a.googleErr != nil {
			a.googleErr = fmt.Errorf("failed to create gmail client: %w", a.googleErr)
		}
	})
	return a.googleErr
}
