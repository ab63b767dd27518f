package domain

// Table é uma tabela delimitada pronta para escrita.
// Name vira o prefixo do arquivo (ex: "flights").
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

func (t Table) Len() int { return len(t.Rows) }

// Column devolve os valores de uma coluna; ok=false se ela não existir.
func (t Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// TableWriter persiste uma tabela em dir/filename.
//
// RemoveTable desfaz uma escrita anterior; é usado quando outra tabela do
// mesmo RunSet falha, para não deixar um conjunto parcial de arquivos.
type TableWriter interface {
	WriteTable(dir, filename string, t Table) error
	RemoveTable(dir, filename string) error
}
