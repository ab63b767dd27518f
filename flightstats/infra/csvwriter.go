package infra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"flightstats-client/flightstats/domain"
)

// CSVWriter escreve tabelas como CSV com cabeçalho e sem coluna de índice.
//
// O arquivo é escrito em um temporário no mesmo diretório e renomeado no
// final, então um arquivo existente nunca fica pela metade.
type CSVWriter struct {
	Comma    rune
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{Comma: ',', DirPerm: 0o755, FilePerm: 0o644}
}

func (w *CSVWriter) WriteTable(dir, filename string, t domain.Table) (err error) {
	// MkdirAll não falha se o diretório já existir.
	if err := os.MkdirAll(dir, w.dirPerm()); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filename+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", filename, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	cw := csv.NewWriter(tmp)
	if w.Comma != 0 {
		cw.Comma = w.Comma
	}
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header of %s: %w", filename, err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows of %s: %w", filename, err)
	}

	if err := tmp.Chmod(w.filePerm()); err != nil {
		return fmt.Errorf("chmod %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filename, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, filename))
}

// RemoveTable apaga dir/filename e também dir, se ele tiver ficado vazio.
func (w *CSVWriter) RemoveTable(dir, filename string) error {
	if err := os.Remove(filepath.Join(dir, filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", filename, err)
	}
	// falha se ainda houver arquivos no diretório, o que é esperado
	_ = os.Remove(dir)
	return nil
}

func (w *CSVWriter) dirPerm() os.FileMode {
	if w.DirPerm == 0 {
		return 0o755
	}
	return w.DirPerm
}

func (w *CSVWriter) filePerm() os.FileMode {
	if w.FilePerm == 0 {
		return 0o644
	}
	return w.FilePerm
}
