package simulate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const examplePlan = "../../config/example-plan.yml"

func newApp(buf *bytes.Buffer) *cli.App {
	// Errors are checked by tests, exit codes are not.
	cli.OsExiter = func(int) {}
	ctl := cli.NewApp()
	ctl.Name = "spendkit"
	ctl.Writer = buf
	ctl.ErrWriter = buf
	ctl.Commands = NewCommands()
	return ctl
}

func testConfig(t *testing.T, dbType string) string {
	path := filepath.Join(t.TempDir(), "spendkit.yml")
	cfg := "ApplicationConfiguration:\n  Timestamp: 1000\n  LogLevel: error\n  DBConfiguration:\n    Type: " + dbType + "\n"
	if dbType == "boltdb" {
		cfg += "    BoltDBOptions:\n      FilePath: " + filepath.Join(t.TempDir(), "ledger.bolt") + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func balances(res *Result) map[string]map[string]uint64 {
	m := make(map[string]map[string]uint64)
	for _, a := range res.Accounts {
		m[a.Name] = map[string]uint64{"xch": a.Xch}
		for _, b := range a.Assets {
			m[a.Name][b.Kind] += b.Amount
		}
	}
	return m
}

func TestRunExamplePlan(t *testing.T) {
	for _, db := range []string{"inmemory", "boltdb"} {
		t.Run(db, func(t *testing.T) {
			buf := new(bytes.Buffer)
			err := newApp(buf).Run([]string{"spendkit", "simulate", "run",
				"--config-file", testConfig(t, db), "--plan", examplePlan, "--json"})
			require.NoError(t, err, buf.String())

			res := new(Result)
			require.NoError(t, json.Unmarshal(buf.Bytes(), res))
			require.Len(t, res.Sessions, 10)
			require.EqualValues(t, 1010, res.Timestamp)
			require.Len(t, res.Sessions[0].Minted, 1)
			require.Equal(t, map[string]map[string]uint64{
				"alice": {"xch": 867, "cat": 40, "did": 1},
				"bob":   {"xch": 341, "cat": 40, "nft": 1},
			}, balances(res))

			catID := res.Sessions[0].Minted[0].AssetID
			for _, a := range res.Accounts {
				for _, b := range a.Assets {
					if b.Kind == "cat" {
						require.Equal(t, catID, b.AssetID)
					}
				}
			}
		})
	}
}

func TestRunTextOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	err := newApp(buf).Run([]string{"spendkit", "simulate", "run",
		"--config-file", testConfig(t, "inmemory"), "--plan", examplePlan, "--dump"})
	require.NoError(t, err, buf.String())
	out := buf.String()
	require.Contains(t, out, "Session issue:")
	require.Contains(t, out, "alice (")
	require.Contains(t, out, "\txch: 867\n")
	require.Contains(t, out, "\txch: 341\n")
	require.Contains(t, out, "$issue.0: ")
}

func TestRunInvalid(t *testing.T) {
	writePlan := func(t *testing.T, plan string) string {
		path := filepath.Join(t.TempDir(), "plan.yml")
		require.NoError(t, os.WriteFile(path, []byte(plan), 0o644))
		return path
	}
	run := func(t *testing.T, args ...string) error {
		buf := new(bytes.Buffer)
		return newApp(buf).Run(append([]string{"spendkit", "simulate", "run"}, args...))
	}
	cfg := testConfig(t, "inmemory")

	t.Run("no plan", func(t *testing.T) {
		require.Error(t, run(t, "--config-file", cfg))
	})
	t.Run("missing plan", func(t *testing.T) {
		require.Error(t, run(t, "--config-file", cfg, "--plan", filepath.Join(t.TempDir(), "none.yml")))
	})
	t.Run("extra args", func(t *testing.T) {
		require.Error(t, run(t, "--config-file", cfg, "--plan", examplePlan, "something"))
	})
	t.Run("overspend", func(t *testing.T) {
		plan := writePlan(t, `
Accounts:
  - {Name: alice, Coins: [10]}
  - {Name: bob, Index: 1}
Sessions:
  - Sender: alice
    Actions:
      - {Type: send, To: bob, Amount: 11}
`)
		require.Error(t, run(t, "--config-file", cfg, "--plan", plan))
	})
	t.Run("unknown ref", func(t *testing.T) {
		plan := writePlan(t, `
Accounts:
  - {Name: alice, Coins: [10]}
Sessions:
  - Sender: alice
    Actions:
      - {Type: send, Asset: $later.0, To: alice, Amount: 1}
`)
		require.Error(t, run(t, "--config-file", cfg, "--plan", plan))
	})
	t.Run("expired option", func(t *testing.T) {
		plan := writePlan(t, `
Accounts:
  - {Name: alice, Coins: [1000]}
  - {Name: bob, Index: 1, Coins: [500]}
Sessions:
  - Name: option
    Sender: alice
    Actions:
      - {Type: mint-option, UnderlyingAmount: 300, StrikeAmount: 200, ExpiresIn: 100, Amount: 1}
  - Sender: alice
    Actions:
      - {Type: send, Asset: $option.0, To: bob, Amount: 1}
  - Sender: bob
    PassTime: 200
    Actions:
      - {Type: exercise-option, Asset: $option.0}
`)
		require.Error(t, run(t, "--config-file", cfg, "--plan", plan))
	})
}

func TestAddress(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, newApp(buf).Run([]string{"spendkit", "simulate", "address", "--index", "1"}))
	out := buf.String()
	require.Contains(t, out, "Address: ")
	require.Contains(t, out, "PuzzleHash: ")

	other := new(bytes.Buffer)
	require.NoError(t, newApp(other).Run([]string{"spendkit", "simulate", "address", "--index", "1", "--seed", "other"}))
	require.NotEqual(t, out, other.String())
}
