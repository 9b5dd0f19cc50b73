package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/material-processor/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-file=", "--log-level=error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, opts.close())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "material-processor v"+version+"\n", out)
}

func TestPlanPurchaseCommand(t *testing.T) {
	dir := t.TempDir()
	bom := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(bom, []byte(
		"material_name,new_code,required_qty,stock_qty,unit_price\n"+
			"bolt,N1,10,4,2.5\n"+
			"washer,N3,\"1,000\",0,0.01\n"), 0o644))

	out, err := execute(t, "plan-purchase", "--primary", bom, "--qty", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Purchase rows: 2")
	assert.Contains(t, out, "Total cost: 95.00")
	assert.FileExists(t, filepath.Join(dir, "bom_plan_purchase.xlsx"))
}

func TestMapCodesCommandMissingReference(t *testing.T) {
	dir := t.TempDir()
	bom := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(bom, []byte("original_code,new_code\nA1,\n"), 0o644))

	_, err := execute(t, "map-codes", "--primary", bom)
	var missing *models.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "reference file", missing.Field)
	assert.Equal(t, 2, exitCode(err))
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	bom := filepath.Join(dir, "bom.csv")
	stock := filepath.Join(dir, "stock.csv")
	require.NoError(t, os.WriteFile(bom, []byte("new_code,stock_qty\nM1,1\n"), 0o644))
	require.NoError(t, os.WriteFile(stock, []byte("material_code,base_unit_qty\nM1,2\n"), 0o644))

	out, err := execute(t, "detect", "--primary", bom, "--reference", stock)
	require.NoError(t, err)
	assert.Equal(t, "sync-inventory (Sync inventory quantities)\n", out)

	out, err = execute(t, "detect", "--primary", stock)
	require.Error(t, err)
	assert.Contains(t, out, "1: material_code")
}

func TestUnknownLabels(t *testing.T) {
	_, err := execute(t, "--labels", filepath.Join(t.TempDir(), "none.yaml"), "version")
	require.NoError(t, err, "version skips label resolution")

	_, err = execute(t, "--labels", filepath.Join(t.TempDir(), "none.yaml"), "detect")
	assert.ErrorContains(t, err, "labels file")
}

func TestLogFileClosedAfterFailedCommand(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	logFile := filepath.Join(t.TempDir(), "run.log")
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-file=" + logFile, "plan-purchase", "--primary", filepath.Join(t.TempDir(), "none.csv")})
	require.Error(t, cmd.ExecuteContext(context.Background()))

	closeLog := opts.closeLog
	require.NotNil(t, closeLog, "log file opened by the pre-run hook")
	require.NoError(t, opts.close())
	assert.Nil(t, opts.closeLog)
	assert.ErrorIs(t, closeLog(), os.ErrClosed)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failed to read primary table")
}

func TestLabelsFlagListsPresets(t *testing.T) {
	flag := newRootCmd(&rootOptions{}).PersistentFlags().Lookup("labels")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "en, zh")
}

func TestServeDefaultAddrIsLoopback(t *testing.T) {
	flag := newServeCmd(&rootOptions{}).Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "localhost:8501", flag.DefValue)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "bom_map_codes.xlsx"), defaultOutput(filepath.Join("data", "bom.xlsx"), models.TaskMapCodes))
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, ":8501", displayAddr(":8501"))
	assert.Equal(t, ":9000", displayAddr("127.0.0.1:9000"))
	assert.Equal(t, ":8501", displayAddr(defaultAddr))
}
