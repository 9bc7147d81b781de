package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
  "cells": [
    {
      "cell_type": "markdown",
      "source": ["# Analysis\n", "A small example."]
    },
    {
      "cell_type": "code",
      "execution_count": 1,
      "source": ["learning_rate = 0.01\n", "n_clusters = 5"]
    },
    {
      "cell_type": "code",
      "source": "print(df.num_rows)"
    },
    {
      "cell_type": "code",
      "source": []
    }
  ],
  "metadata": {
    "kernelspec": {"display_name": "Python 3", "language": "python"},
    "language_info": {"name": "python"}
  },
  "nbformat": 4,
  "nbformat_minor": 5
}`

func TestParse(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		nb, err := Parse([]byte(sampleNotebook))
		require.NoError(t, err)

		assert.Equal(t, "Python 3", nb.KernelName)
		assert.Equal(t, "python", nb.Language)
		assert.Equal(t, 4, nb.NBFormat)
		require.Len(t, nb.Cells, 4)

		assert.Equal(t, CellMarkdown, nb.Cells[0].Type)
		assert.Equal(t, "# Analysis\nA small example.", nb.Cells[0].Source)

		assert.Equal(t, CellCode, nb.Cells[1].Type)
		assert.Equal(t, "learning_rate = 0.01\nn_clusters = 5", nb.Cells[1].Source)
		require.NotNil(t, nb.Cells[1].ExecutionCount)
		assert.Equal(t, 1, *nb.Cells[1].ExecutionCount)

		// String-encoded source is accepted too
		assert.Equal(t, "print(df.num_rows)", nb.Cells[2].Source)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := Parse([]byte("not a notebook"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid notebook format")
	})

	t.Run("BadSourceEncoding", func(t *testing.T) {
		_, err := Parse([]byte(`{"cells":[{"cell_type":"code","source":42}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid notebook cell 0")
	})

	t.Run("MissingMetadata", func(t *testing.T) {
		nb, err := Parse([]byte(`{"cells":[]}`))
		require.NoError(t, err)
		assert.Equal(t, "Unknown", nb.KernelName)
	})
}

func TestNotebookCode(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)

	code := nb.Code()
	assert.Equal(t,
		"# --- Cell 2 ---\n\nlearning_rate = 0.01\nn_clusters = 5\n\n# --- Cell 3 ---\n\nprint(df.num_rows)",
		code)
	// Markdown and empty cells contribute nothing
	assert.NotContains(t, code, "Analysis")
	assert.NotContains(t, code, "Cell 4")
}

func TestNotebookCodeCell(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)

	src, ok := nb.CodeCell(2)
	require.True(t, ok)
	assert.Equal(t, "print(df.num_rows)", src)

	// Index 0 is a markdown cell
	_, ok = nb.CodeCell(0)
	assert.False(t, ok)

	_, ok = nb.CodeCell(99)
	assert.False(t, ok)
}

func TestNotebookSummary(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)

	s := nb.Summary()
	assert.Equal(t, "Python 3", s.Kernel)
	assert.Equal(t, 4, s.TotalCells)
	assert.Equal(t, 3, s.CodeCells)
	assert.Equal(t, 1, s.MarkdownCells)
	assert.Equal(t, 1, s.ExecutedCells)
	assert.Equal(t, "4.5", s.NBFormat)
}
