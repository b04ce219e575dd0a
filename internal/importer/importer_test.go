package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/trustledger/internal/canonical"
)

const sampleExtract = `date,description,amount,balance,category,counterparty
2025-01-02,Movimento 1,-107.25,9892.75,Pagamento,Parceiro X
2025-01-03, Movimento 2 ,114.5,10007.25,Doação,Doador Y
`

func TestExtractParser_Parse(t *testing.T) {
	p := &ExtractParser{}
	recs, err := p.Parse(strings.NewReader(sampleExtract))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Movimento 1", recs[0].Description)
	assert.Equal(t, "-107.25", recs[0].Amount.StringFixed(2))
	assert.Equal(t, "9892.75", recs[0].Balance.StringFixed(2))
	assert.Equal(t, "Parceiro X", recs[0].Counterparty)
	assert.Equal(t, 2025, recs[0].Date.Year())
	assert.Equal(t, 2, recs[0].Date.Day())

	// Parser does not normalize; trimming happens in canonical.Normalize.
	assert.Equal(t, "Movimento 2 ", recs[1].Description)
	assert.Equal(t, "Doação", recs[1].Category)
}

func TestExtractParser_ColumnOrderAndCase(t *testing.T) {
	data := "Counterparty,AMOUNT,Date,Balance,Description,Category\nDoador Y,10.00,2025-01-05,20.00,Gift,Doação\n"
	p := &ExtractParser{}
	recs, err := p.Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Gift", recs[0].Description)
	assert.Equal(t, "10.00", recs[0].Amount.StringFixed(2))
	assert.Equal(t, "Doador Y", recs[0].Counterparty)
}

func TestExtractParser_DateTimeInput(t *testing.T) {
	data := "date,description,amount,balance,category,counterparty\n2025-01-05T14:30:00,x,1,1,c,p\n"
	recs, err := (&ExtractParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2025-01-05", recs[0].Date.Format(canonical.DateFormat))
	assert.Zero(t, recs[0].Date.Hour())
}

func TestExtractParser_EmptyFile(t *testing.T) {
	p := &ExtractParser{}
	recs, err := p.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, recs)

	recs, err = p.Parse(strings.NewReader("date,description,amount,balance,category,counterparty\n"))
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestExtractParser_SkipsBlankRows(t *testing.T) {
	data := "date,description,amount,balance,category,counterparty\n,,,,,\n2025-01-05,x,1,1,c,p\n"
	recs, err := (&ExtractParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestExtractParser_Malformed(t *testing.T) {
	header := "date,description,amount,balance,category,counterparty\n"
	tests := []struct {
		name  string
		data  string
		field string
		row   int
	}{
		{"missing column", "date,description,amount,category,counterparty\n2025-01-02,x,1,c,p\n", "balance", 1},
		{"bad date", header + "NOTADATE,x,1,1,c,p\n", "date", 2},
		{"empty date", header + ",x,1,1,c,p\n", "date", 2},
		{"bad amount", header + "2025-01-02,x,NOTANUMBER,1,c,p\n", "amount", 2},
		{"empty amount", header + "2025-01-02,x,,1,c,p\n", "amount", 2},
		{"short row", header + "2025-01-02,Fee,-1.00\n", "balance", 2},
		{"row cut after date", header + "2025-01-02\n", "amount", 2},
		{"unterminated quote", header + "2025-01-02,x,1,1,c,p\n2025-01-03,\"y,2,2,c,p\n", "row", 3},
		{"bad balance", header + "2025-01-02,x,1,1,c,p\n2025-01-03,y,2,abc,c,p\n", "balance", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&ExtractParser{}).Parse(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, canonical.ErrMalformedInput)

			var mErr *canonical.MalformedInputError
			require.True(t, errors.As(err, &mErr))
			assert.Equal(t, tt.field, mErr.Field)
			assert.Equal(t, tt.row, mErr.Row)
		})
	}
}

func TestExtractParser_Format(t *testing.T) {
	assert.Equal(t, "extract", (&ExtractParser{}).Format())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&ExtractParser{})
	p := r.Get("extract")
	require.NotNil(t, p)
	assert.Equal(t, "extract", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ExtractParser{})
	assert.NotNil(t, r.Get("Extract"))
	assert.NotNil(t, r.Get("EXTRACT"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&ExtractParser{})
	assert.Panics(t, func() { r.Register(&ExtractParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("extract"))
}

func TestScan_FindsCSVsSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extrato_2.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extrato_1.CSV"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "extrato_1.CSV", files[0].Name)
	assert.Equal(t, "extrato_2.csv", files[1].Name)
	assert.Equal(t, "extrato_2", files[1].Stem())
	assert.Equal(t, int64(4), files[1].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, ProcessedDir)
	require.NoError(t, os.MkdirAll(processed, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleExtract), 0o644))

	recs, err := ParseFile(&ExtractParser{}, path)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = ParseFile(&ExtractParser{}, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, ProcessedDir, "bank.csv"))
	assert.NoError(t, err)
}

func TestMarkProcessed_Missing(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "ghost.csv")
	assert.Error(t, err)
}
