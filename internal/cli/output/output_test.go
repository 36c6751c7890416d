package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRow struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

type userRows []userRow

func (u userRows) Headers() []string { return []string{"Username", "Role"} }

func (u userRows) Rows() [][]string {
	rows := make([][]string, 0, len(u))
	for _, r := range u {
		rows = append(rows, []string{r.Name, r.Role})
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: "yaml", want: FormatYAML},
		{input: "yml", want: FormatYAML},
		{input: "  table  ", want: FormatTable},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter_Print(t *testing.T) {
	data := userRows{{Name: "alice", Role: "operator"}, {Name: "bob", Role: "member"}}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(data))
		out := buf.String()
		assert.Contains(t, out, "USERNAME")
		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "member")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(data))
		assert.Contains(t, buf.String(), `"name": "alice"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(data))
		assert.Contains(t, buf.String(), "- name: alice")
	})

	t.Run("table without renderer falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(userRow{Name: "carol"}))
		assert.Contains(t, buf.String(), `"name": "carol"`)
	})
}

func TestPrinter_Status(t *testing.T) {
	var plain bytes.Buffer
	NewPrinter(&plain, FormatTable, false).Success("done")
	assert.Equal(t, "done\n", plain.String())

	var colored bytes.Buffer
	NewPrinter(&colored, FormatTable, true).Warning("careful")
	assert.Equal(t, "\033[33mcareful\033[0m\n", colored.String())
}

func TestTableData(t *testing.T) {
	table := NewTableData("Name", "Age")
	assert.Empty(t, table.Rows())

	table.AddRow("Alice", "30")
	table.AddRow("Bob", "25")

	require.Len(t, table.Rows(), 2)
	assert.Equal(t, []string{"Bob", "25"}, table.Rows()[1])

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "Alice")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Port", "1337"}, {"Boards", "2"}}))

	out := buf.String()
	assert.Contains(t, out, "Port")
	assert.Contains(t, out, "1337")
	assert.Contains(t, out, "Boards")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
