package commands

import (
	"context"

	"github.com/jj-development3dx/hz-publisher/lib/restyutil"
	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"
)

// loadClient restores the persisted session and builds a client on top of
// it. Commands other than login require a previous login.
func loadClient(ctx context.Context) *f95zone.Client {
	session, err := f95zone.NewSession(*sessionFile)
	if err != nil {
		serviceutil.Fatal("failed to open session", err)
	}
	err = session.Load()
	if err != nil {
		serviceutil.Fatal("failed to load session, run `f95-cli login` first", err)
	}

	if *recordHttp != "" {
		f95zone.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(*recordHttp))
	}

	client, err := f95zone.NewClient(ctx, f95zone.ClientOptions{Session: session})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	return client
}
