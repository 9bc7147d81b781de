package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CellType identifies the kind of a notebook cell.
const (
	CellCode     = "code"
	CellMarkdown = "markdown"
	CellRaw      = "raw"
)

// Cell is one cell of a parsed notebook.
type Cell struct {
	Type           string `json:"type"`
	Source         string `json:"source"`
	Index          int    `json:"index"`
	ExecutionCount *int   `json:"execution_count,omitempty"`
}

// Notebook is a parsed .ipynb document.
type Notebook struct {
	Cells         []Cell `json:"cells"`
	KernelName    string `json:"kernel"`
	Language      string `json:"language"`
	NBFormat      int    `json:"nbformat"`
	NBFormatMinor int    `json:"nbformat_minor"`
}

// rawNotebook mirrors the on-disk .ipynb JSON structure.
type rawNotebook struct {
	Cells []struct {
		CellType       string          `json:"cell_type"`
		Source         json.RawMessage `json:"source"`
		ExecutionCount *int            `json:"execution_count"`
	} `json:"cells"`
	Metadata struct {
		KernelSpec struct {
			DisplayName string `json:"display_name"`
			Language    string `json:"language"`
		} `json:"kernelspec"`
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
	NBFormat      int `json:"nbformat"`
	NBFormatMinor int `json:"nbformat_minor"`
}

// Parse decodes a Jupyter notebook from its JSON bytes.
func Parse(data []byte) (*Notebook, error) {
	var raw rawNotebook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid notebook format: %w", err)
	}

	nb := &Notebook{
		KernelName:    raw.Metadata.KernelSpec.DisplayName,
		Language:      raw.Metadata.LanguageInfo.Name,
		NBFormat:      raw.NBFormat,
		NBFormatMinor: raw.NBFormatMinor,
	}
	if nb.Language == "" {
		nb.Language = raw.Metadata.KernelSpec.Language
	}
	if nb.KernelName == "" {
		nb.KernelName = "Unknown"
	}

	for i, cell := range raw.Cells {
		source, err := decodeSource(cell.Source)
		if err != nil {
			return nil, fmt.Errorf("invalid notebook cell %d: %w", i, err)
		}
		cellType := cell.CellType
		if cellType == "" {
			cellType = CellCode
		}
		nb.Cells = append(nb.Cells, Cell{
			Type:           cellType,
			Source:         source,
			Index:          i,
			ExecutionCount: cell.ExecutionCount,
		})
	}

	return nb, nil
}

// decodeSource handles both source encodings the format allows: a single
// string or a list of line strings.
func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("unsupported source encoding: %w", err)
	}
	return strings.Join(lines, ""), nil
}

// Code joins the non-empty code cells into one script, separated by cell
// markers so the origin of each block stays visible.
func (nb *Notebook) Code() string {
	var parts []string
	for _, cell := range nb.Cells {
		if cell.Type != CellCode {
			continue
		}
		source := strings.TrimSpace(cell.Source)
		if source == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("# --- Cell %d ---", cell.Index+1), source)
	}
	return strings.Join(parts, "\n\n")
}

// CodeCell returns the source of the code cell at the given index.
func (nb *Notebook) CodeCell(index int) (string, bool) {
	for _, cell := range nb.Cells {
		if cell.Index == index && cell.Type == CellCode {
			return cell.Source, true
		}
	}
	return "", false
}

// Summary describes the notebook's contents.
type Summary struct {
	Kernel        string `json:"kernel"`
	Language      string `json:"language"`
	TotalCells    int    `json:"total_cells"`
	CodeCells     int    `json:"code_cells"`
	MarkdownCells int    `json:"markdown_cells"`
	ExecutedCells int    `json:"executed_cells"`
	NBFormat      string `json:"nbformat"`
}

// Summary returns counts and metadata for the notebook.
func (nb *Notebook) Summary() Summary {
	s := Summary{
		Kernel:   nb.KernelName,
		Language: nb.Language,
		NBFormat: fmt.Sprintf("%d.%d", nb.NBFormat, nb.NBFormatMinor),
	}
	for _, cell := range nb.Cells {
		s.TotalCells++
		switch cell.Type {
		case CellCode:
			s.CodeCells++
			if cell.ExecutionCount != nil {
				s.ExecutedCells++
			}
		case CellMarkdown:
			s.MarkdownCells++
		}
	}
	return s
}
