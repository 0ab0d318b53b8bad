package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"escrowhub/internal/config"
	"escrowhub/internal/model"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Store.Driver = config.DriverMemory
	cfg.Locker.Driver = config.DriverLocal
	cfg.Gateway.Driver = config.DriverMemory
	cfg.Gateway.Genesis = []config.GenesisBalance{{Token: "USD", Address: "emp", Amount: "500"}}
	cfg.Ledger.CustodyAddress = "custody"
	return cfg
}

func TestBuildInMemory(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, baseConfig(), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Redis)
	assert.Empty(t, app.ReadyChecks)

	bal, err := app.Ledger.GetBalance(ctx, "emp", "USD")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)))

	already, err := app.Ledger.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestBuildRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cfg := baseConfig()
	cfg.Store.Driver = config.DriverRedis
	cfg.Locker.Driver = config.DriverRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "boot"

	app, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Redis)
	require.Len(t, app.ReadyChecks, 1)
	require.NoError(t, app.ReadyChecks[0].Ping(ctx))

	_, err = app.Ledger.RegisterUser(ctx, "emp", model.RoleEmployer)
	require.NoError(t, err)
	job, err := app.Ledger.CreateJob(ctx, "emp", "Logo", "", decimal.NewFromInt(100), "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(1), job.ID)
}

func TestBuildRejectsBadGenesis(t *testing.T) {
	cfg := baseConfig()
	cfg.Gateway.Genesis[0].Amount = "a lot"
	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
