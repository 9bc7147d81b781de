package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Acteus/Base-ML-Platform/dataset"
)

func testDataset(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(
		[]string{"x", "y"},
		[][]any{
			{int64(1), int64(2), int64(3), int64(4)},
			{10.0, 20.0, 30.0, 40.0},
		},
	)
	require.NoError(t, err)
	return tbl
}

func testEnv(t *testing.T) *Environment {
	t.Helper()
	return NewEnvironment("df", testDataset(t))
}

func TestEngineRun(t *testing.T) {
	eng := New(zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("StdoutInOrder", func(t *testing.T) {
		res := eng.Run(ctx, "print(\"first\")\nprint(\"second\")\nprint(\"third\")\n", testEnv(t), 0)

		assert.Equal(t, StatusSuccess, res.Status)
		assert.Nil(t, res.Err)
		assert.Equal(t, "first\nsecond\nthird\n", res.Stdout)
		assert.Empty(t, res.Variables)
		assert.Empty(t, res.Tables)
		assert.Empty(t, res.Figures)
		assert.NotEmpty(t, res.RunID)
	})

	t.Run("DivisionByZero", func(t *testing.T) {
		res := eng.Run(ctx, "x = 1 / 0\n", testEnv(t), 0)

		assert.Equal(t, StatusFailure, res.Status)
		require.NotNil(t, res.Err)
		assert.Equal(t, KindRuntimeError, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "division by zero")
	})

	t.Run("SyntaxError", func(t *testing.T) {
		res := eng.Run(ctx, "def f(:\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindSyntaxError, res.Err.Kind)
	})

	t.Run("UndefinedName", func(t *testing.T) {
		// Unresolvable names are static errors, caught before execution
		res := eng.Run(ctx, "y = no_such_thing\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindSyntaxError, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "no_such_thing")
	})

	t.Run("EmptyScript", func(t *testing.T) {
		res := eng.Run(ctx, "   \n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindSyntaxError, res.Err.Kind)
	})

	t.Run("Timeout", func(t *testing.T) {
		start := time.Now()
		res := eng.Run(ctx, "while True:\n    pass\n", testEnv(t), 200*time.Millisecond)
		elapsed := time.Since(start)

		assert.Equal(t, StatusFailure, res.Status)
		require.NotNil(t, res.Err)
		assert.Equal(t, KindTimeout, res.Err.Kind)
		// The run must come back promptly after the budget, not hang
		assert.Less(t, elapsed, 5*time.Second)
	})

	t.Run("ScriptErrorMentioningCancellation", func(t *testing.T) {
		// A script failure whose message talks about cancellation is still a
		// plain runtime error, not a timeout
		res := eng.Run(ctx, "fail(\"operation cancelled by user\")\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindRuntimeError, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "operation cancelled by user")
	})

	t.Run("ScriptErrorSpoofingWatchdogReason", func(t *testing.T) {
		res := eng.Run(ctx, "fail(\"wall-clock budget exceeded\")\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindRuntimeError, res.Err.Kind)
	})

	t.Run("StdoutPreservedOnError", func(t *testing.T) {
		res := eng.Run(ctx, "print(\"before the crash\")\nx = 1 / 0\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindRuntimeError, res.Err.Kind)
		assert.Equal(t, "before the crash\n", res.Stdout)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		res := eng.Run(ctx, "data = open(\"secrets.txt\")\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindPermissionDenied, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "open")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()
		res := eng.Run(cancelled, "while True:\n    pass\n", testEnv(t), time.Minute)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindUnknown, res.Err.Kind)
	})

	t.Run("MissingDatasetBinding", func(t *testing.T) {
		res := eng.Run(ctx, "x = 1\n", NewEnvironment("df", nil), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindUnknown, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "dataset")
	})
}

func TestEngineClassification(t *testing.T) {
	eng := New(zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("TableGoesToTables", func(t *testing.T) {
		res := eng.Run(ctx, "result_df = df.head(2)\n", testEnv(t), 0)

		require.Nil(t, res.Err)
		require.Len(t, res.Tables, 1)
		assert.Equal(t, "result_df", res.Tables[0].Name)
		assert.Equal(t, 2, res.Tables[0].Table.NumRows())

		// Structural classification: a table never lands in variables
		_, ok := res.Variable("result_df")
		assert.False(t, ok)
	})

	t.Run("FigureGoesToFigures", func(t *testing.T) {
		res := eng.Run(ctx, "fig = plot.line(df.column(\"x\"), df.column(\"y\"), title=\"trend\")\n", testEnv(t), 0)

		require.Nil(t, res.Err)
		require.Len(t, res.Figures, 1)
		assert.Equal(t, "fig", res.Figures[0].Name)
		assert.Equal(t, FigureLine, res.Figures[0].Figure.Kind())
		assert.Equal(t, "trend", res.Figures[0].Figure.Title())
		assert.Equal(t, []float64{1, 2, 3, 4}, res.Figures[0].Figure.X())
	})

	t.Run("PlainValuesGoToVariables", func(t *testing.T) {
		script := "n = 5\nname = \"kmeans\"\nscores = [0.5, 0.75]\nmeta = {\"k\": 3}\n"
		res := eng.Run(ctx, script, testEnv(t), 0)

		require.Nil(t, res.Err)
		require.Len(t, res.Variables, 4)

		n, ok := res.Variable("n")
		require.True(t, ok)
		assert.Equal(t, "int", n.Type)
		assert.Equal(t, int64(5), n.Value)

		scores, ok := res.Variable("scores")
		require.True(t, ok)
		assert.Equal(t, []any{0.5, 0.75}, scores.Value)

		meta, ok := res.Variable("meta")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"k": int64(3)}, meta.Value)
	})

	t.Run("ScriptOrderPreserved", func(t *testing.T) {
		script := "zeta = 1\nalpha = 2\nmid = 3\n"
		res := eng.Run(ctx, script, testEnv(t), 0)

		require.Nil(t, res.Err)
		require.Len(t, res.Variables, 3)
		assert.Equal(t, "zeta", res.Variables[0].Name)
		assert.Equal(t, "alpha", res.Variables[1].Name)
		assert.Equal(t, "mid", res.Variables[2].Name)
	})

	t.Run("InjectedBindingsExcluded", func(t *testing.T) {
		res := eng.Run(ctx, "rows = df.num_rows\n", testEnv(t), 0)

		require.Nil(t, res.Err)
		assert.Empty(t, res.Tables)
		require.Len(t, res.Variables, 1)
		assert.Equal(t, "rows", res.Variables[0].Name)
		assert.Equal(t, int64(4), res.Variables[0].Value)
	})

	t.Run("ReassignedInjectedNameIncluded", func(t *testing.T) {
		res := eng.Run(ctx, "df = 42\n", testEnv(t), 0)

		require.Nil(t, res.Err)
		v, ok := res.Variable("df")
		require.True(t, ok)
		assert.Equal(t, int64(42), v.Value)
	})

	t.Run("NonIterableSeriesRejected", func(t *testing.T) {
		res := eng.Run(ctx, "fig = plot.line(1, 2)\n", testEnv(t), 0)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindRuntimeError, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "iterable")
	})

	t.Run("BuiltTableClassified", func(t *testing.T) {
		res := eng.Run(ctx, "summary = table.new({\"metric\": [\"rmse\"], \"value\": [0.42]})\n", testEnv(t), 0)

		require.Nil(t, res.Err)
		require.Len(t, res.Tables, 1)
		assert.Equal(t, "summary", res.Tables[0].Name)
		assert.Equal(t, []string{"metric", "value"}, res.Tables[0].Table.Columns())
	})
}

func TestEngineEnvironmentIsolation(t *testing.T) {
	eng := New(zaptest.NewLogger(t))
	ctx := context.Background()
	env := testEnv(t)

	// A run that rebinds the dataset name must not leak into later runs
	res := eng.Run(ctx, "df = 42\n", env, 0)
	require.Nil(t, res.Err)

	res = eng.Run(ctx, "rows = df.num_rows\n", env, 0)
	require.Nil(t, res.Err)
	v, ok := res.Variable("rows")
	require.True(t, ok)
	assert.Equal(t, int64(4), v.Value)
	assert.True(t, env.Has("df"))
}

func TestEngineOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("OutputTruncation", func(t *testing.T) {
		eng := New(zaptest.NewLogger(t), WithMaxOutputBytes(64))
		script := "for i in range(100):\n    print(\"some fairly long line of output\")\n"
		res := eng.Run(ctx, script, testEnv(t), 0)

		require.Nil(t, res.Err)
		assert.Contains(t, res.Stdout, "[output truncated]")
		assert.Less(t, len(res.Stdout), 128)
	})

	t.Run("StepBudget", func(t *testing.T) {
		// The step budget aborts runaway scripts without waiting on the clock
		eng := New(zaptest.NewLogger(t), WithMaxSteps(10_000))
		start := time.Now()
		res := eng.Run(ctx, "while True:\n    pass\n", testEnv(t), time.Minute)

		require.NotNil(t, res.Err)
		assert.Equal(t, KindTimeout, res.Err.Kind)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("NilLogger", func(t *testing.T) {
		eng := New(nil)
		res := eng.Run(ctx, "x = 1\n", testEnv(t), 0)
		assert.Equal(t, StatusSuccess, res.Status)
	})
}

func TestEngineMathAndJSON(t *testing.T) {
	eng := New(zaptest.NewLogger(t))
	ctx := context.Background()

	res := eng.Run(ctx, "root = math.sqrt(16.0)\nencoded = json.encode({\"k\": 3})\n", testEnv(t), 0)
	require.Nil(t, res.Err)

	root, ok := res.Variable("root")
	require.True(t, ok)
	assert.Equal(t, 4.0, root.Value)

	encoded, ok := res.Variable("encoded")
	require.True(t, ok)
	enc, isString := encoded.Value.(string)
	require.True(t, isString)
	assert.True(t, strings.Contains(enc, "\"k\""))
}

func TestEngineNeverPanics(t *testing.T) {
	eng := New(zaptest.NewLogger(t))
	ctx := context.Background()

	scripts := []string{
		"x = [][0]\n",
		"y = int(\"not a number\")\n",
		"a, b = [1, 2, 3]\n",
		"t = df.column(\"missing\")\n",
		"fig = plot.line([1], [1, 2])\n",
	}
	for _, script := range scripts {
		res := eng.Run(ctx, script, testEnv(t), 2*time.Second)
		assert.Equal(t, StatusFailure, res.Status, script)
		require.NotNil(t, res.Err, script)
		assert.NotEmpty(t, res.Err.Message, script)
	}
}
