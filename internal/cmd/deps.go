package cmd

import (
	"context"
	"os"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/secrets"
	"github.com/salmonumbrella/braindump/internal/store"
)

var (
	openSecretsStore = secrets.OpenDefault
	openStoreFunc    = store.Open
	newAPIClientFunc = api.NewClientFromCredentials
	newGeminiFunc    = func(ctx context.Context, apiKey, model string) (enhance.Enhancer, error) {
		g, err := enhance.NewGemini(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	envGet = os.Getenv
)
