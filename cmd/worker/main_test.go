package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/app"
	_ "github.com/tonica-music/catalog/internal/testing/guard"
)

func TestWorkerSkipsStartupInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
