package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finledger/internal/ledger"
	"github.com/cleared-dev/finledger/internal/model"
	"github.com/cleared-dev/finledger/internal/runlog"
)

var hdfcFixture = filepath.Join("..", "importer", "testdata", "hdfc_bank.csv")

func TestAdapt_AppendsToConfiguredLedger(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	raw := filepath.Join(dir, "import", "hdfc_apr.csv")
	copyFile(t, hdfcFixture, raw)

	out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "hdfc_bank_account", "--path", raw)
	require.NoError(t, err, "adapt failed: %s", out)
	assert.Contains(t, out, "HDFC_BANK_ACCOUNT: written=4 skipped=2")

	txns, err := ledger.Read(filepath.Join(dir, "ledger", "transactions.csv"))
	require.NoError(t, err)
	require.Len(t, txns, 4)
	assert.Equal(t, "Food & Dining", txns[0].Category)
	assert.Equal(t, "Salary", txns[1].Category)
	assert.Equal(t, model.Credit, txns[1].Type)
	assert.Equal(t, model.CategoryATMWithdrawal, txns[2].Category)
	assert.Equal(t, model.CategoryOthers, txns[3].Category)
	assert.Equal(t, "Uncategorized: RANDOM MERCHANT", txns[3].Notes)

	_, err = os.Stat(filepath.Join(dir, "import", "hdfc_apr_modified.csv"))
	assert.NoError(t, err, "modified side file should exist")
	_, err = os.Stat(filepath.Join(dir, "import", "hdfc_apr_manual.csv"))
	assert.NoError(t, err, "manual side file should exist")

	entries, err := runlog.Read(filepath.Join(dir, "logs", runlog.FileName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "adapt HDFC_BANK_ACCOUNT", entries[0].Command)
	assert.Equal(t, 4, entries[0].Written)
	assert.Equal(t, 2, entries[0].Skipped)
	assert.NotEmpty(t, entries[0].RunID)
}

func TestAdapt_RerunKeepsSingleHeader(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	raw := filepath.Join(dir, "import", "hdfc_apr.csv")
	copyFile(t, hdfcFixture, raw)

	for i := 0; i < 2; i++ {
		out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "HDFC_BANK_ACCOUNT", "--path", raw)
		require.NoError(t, err, "adapt failed: %s", out)
	}

	contents := readFile(t, filepath.Join(dir, "ledger", "transactions.csv"))
	assert.Equal(t, 1, strings.Count(contents, ledger.Header))
	assert.Equal(t, 9, strings.Count(contents, "\n"), "header plus two runs of four rows")
}

func TestAdapt_ExplicitOutputAndArchive(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	raw := filepath.Join(dir, "import", "hdfc_apr.csv")
	copyFile(t, hdfcFixture, raw)
	output := filepath.Join(dir, "elsewhere", "hdfc.csv")

	out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "HDFC_BANK_ACCOUNT",
		"--path", raw, "--output", output, "--archive")
	require.NoError(t, err, "adapt failed: %s", out)

	txns, err := ledger.Read(output)
	require.NoError(t, err)
	assert.Len(t, txns, 4)

	_, err = os.Stat(raw)
	assert.True(t, os.IsNotExist(err), "raw file should have moved")
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "hdfc_apr.csv"))
	assert.NoError(t, err)
}

func TestAdapt_WithoutWorkspaceWritesBesideRawFile(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "hdfc_apr.csv")
	copyFile(t, hdfcFixture, raw)
	rules := filepath.Join(dir, "rules.csv")
	require.NoError(t, os.WriteFile(rules, []byte("keyword,category,tags,notes\nswiggy,fd,,\n"), 0o644))

	// A missing finance.yaml falls back to defaults; point the rules at our table.
	cfgPath := filepath.Join(dir, "finance.yaml")
	out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "HDFC_BANK_ACCOUNT", "--path", raw)
	require.Error(t, err, "default rules path does not exist yet: %s", out)
	assert.Contains(t, out, "opening rules")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	copyFile(t, rules, filepath.Join(dir, "config", "category_mapping.csv"))
	out, err = runFinledger(t, "adapt", "--config", cfgPath, "--type", "HDFC_BANK_ACCOUNT", "--path", raw)
	require.NoError(t, err, "adapt failed: %s", out)

	txns, err := ledger.Read(filepath.Join(dir, "hdfc_apr_output.csv"))
	require.NoError(t, err)
	assert.Len(t, txns, 4)
}

func TestAdapt_UnknownType(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	raw := filepath.Join(dir, "import", "hdfc_apr.csv")
	copyFile(t, hdfcFixture, raw)

	out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "CHASE_CHECKING", "--path", raw)
	require.Error(t, err)
	assert.Contains(t, out, "unknown account type")
}

func TestAdapt_MissingFile(t *testing.T) {
	dir, cfgPath := initWorkspace(t)

	out, err := runFinledger(t, "adapt", "--config", cfgPath, "--type", "HDFC_BANK_ACCOUNT",
		"--path", filepath.Join(dir, "import", "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, out, "raw file")
	_, statErr := os.Stat(filepath.Join(dir, "ledger", "transactions.csv"))
	assert.True(t, os.IsNotExist(statErr), "no ledger should be written")
}

func TestAdapt_RequiresFlags(t *testing.T) {
	_, err := runFinledger(t, "adapt", "--type", "HDFC_BANK_ACCOUNT")
	require.Error(t, err, "adapt without --path should fail")
}

func TestTypes(t *testing.T) {
	out, err := runFinledger(t, "types")
	require.NoError(t, err)
	for _, typ := range []string{"HDFC_BANK_ACCOUNT", "AXIS_CREDIT_CARD", "CASH", "FASTAG_WALLET"} {
		assert.Contains(t, out, typ)
	}
}

func TestInbox(t *testing.T) {
	dir, cfgPath := initWorkspace(t)

	out, err := runFinledger(t, "inbox", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "import/ is empty")

	copyFile(t, hdfcFixture, filepath.Join(dir, "import", "hdfc_apr.csv"))
	out, err = runFinledger(t, "inbox", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "hdfc_apr.csv")
}
