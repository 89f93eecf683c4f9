package catalog_test

import (
	"strings"
	"testing"

	"github.com/KukimiCan/aozora-api/catalog"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const testHeader = "作品名,作品著作権フラグ,姓,名,XHTML/HTMLファイルURL\n"

// shiftJIS encodes a UTF-8 CSV fixture the way the real index file is
// encoded.
func shiftJIS(t *testing.T, s string) *transform.Reader {
	t.Helper()
	return transform.NewReader(strings.NewReader(s), japanese.ShiftJIS.NewEncoder())
}

func TestLoadReader(t *testing.T) {
	csvData := testHeader +
		"吾輩は猫である,なし,夏目,漱石,../cards/000148/files/789_14547.html\n" +
		"坊っちゃん,なし,夏目,漱石,https://www.aozora.gr.jp/cards/000148/files/752_14964.html\n" +
		"ある作品,あり,誰,某,../cards/999999/files/1_1.html\n"

	cat, err := catalog.LoadReader(shiftJIS(t, csvData))
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())

	seen := make(map[string]catalog.Entry)
	for i := 0; i < 100; i++ {
		ent, ok := cat.Random()
		require.True(t, ok)
		seen[ent.Title] = ent
	}
	require.Contains(t, seen, "吾輩は猫である")

	ent := seen["吾輩は猫である"]
	require.Equal(t, "夏目", ent.AuthorFamilyName)
	require.Equal(t, "漱石", ent.AuthorGivenName)
	require.False(t, ent.Copyrighted)
	require.Equal(t, "../cards/000148/files/789_14547.html", ent.CardURL)

	if ent, ok := seen["ある作品"]; ok {
		require.True(t, ent.Copyrighted)
	}
}

func TestLoadReaderDropsRowsWithoutURL(t *testing.T) {
	csvData := testHeader +
		"タイトルのみ,なし,著者,名,\n" +
		"草枕,なし,夏目,漱石,../cards/000148/files/776_14941.html\n"

	cat, err := catalog.LoadReader(shiftJIS(t, csvData))
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	ent, ok := cat.Random()
	require.True(t, ok)
	require.Equal(t, "草枕", ent.Title)
}

func TestLoadReaderSkipsMalformedRows(t *testing.T) {
	csvData := testHeader +
		"こころ,なし,夏目,漱石,../cards/000148/files/773_14560.html\n" +
		"壊れた行,なし,著者\n" +
		"三四郎,なし,夏目,漱石,../cards/000148/files/794_14946.html\n"

	cat, err := catalog.LoadReader(shiftJIS(t, csvData))
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())
}

func TestLoadReaderMissingColumn(t *testing.T) {
	csvData := "作品名,姓,名\n銀河鉄道の夜,宮沢,賢治\n"
	_, err := catalog.LoadReader(shiftJIS(t, csvData))
	require.ErrorContains(t, err, "missing column")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := catalog.Load("testdata/no-such-file.csv")
	require.Error(t, err)
}

func TestNilCatalog(t *testing.T) {
	var cat *catalog.Catalog
	require.Equal(t, 0, cat.Len())
	_, ok := cat.Random()
	require.False(t, ok)
}

func TestNew(t *testing.T) {
	cat := catalog.New(
		catalog.Entry{Title: "a", CardURL: "../cards/a.html"},
		catalog.Entry{Title: "no locator"},
	)
	require.Equal(t, 1, cat.Len())
}
