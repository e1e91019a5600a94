package namesearch

import (
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kinship/pkg/family"
)

func people() (*family.Tree, map[string]string) {
	tree := family.NewTree(nil)
	ids := map[string]string{}
	for _, n := range [][2]string{
		{"Mary", "Smith"},
		{"Johann", "Sebastian"},
		{"Olga", "Petrovna"},
		{"Wilhelmina", "Van Der Berg"},
	} {
		p := tree.CreatePerson(n[0], n[1], family.GenderFemale)
		ids[n[0]] = p.ID()
	}
	return tree, ids
}

func TestEmbed(t *testing.T) {
	v, ok := Embed("Mary Smith")
	require.True(t, ok)
	assert.Len(t, v, Dim)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)

	same, _ := Embed("  MARY,   smith ")
	assert.Equal(t, v, same, "case and punctuation are ignored")

	_, ok = Embed(" -- ")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	tree, ids := people()
	idx, err := Open(nil, "")
	require.NoError(t, err)
	idx.Rebuild(tree.Persons())
	assert.Equal(t, 4, idx.Len())

	tests := []struct {
		query string
		want  string
	}{
		{"mary smith", ids["Mary"]},
		{"Mery Smyth", ids["Mary"]},
		{"johan sebastian", ids["Johann"]},
		{"petrovna", ids["Olga"]},
		{"van der berg", ids["Wilhelmina"]},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := idx.Search(tt.query, 2)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}

	assert.Nil(t, idx.Search("", 3))
	assert.Nil(t, idx.Search("mary", 0))
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := Open(nil, "")
	require.NoError(t, err)
	assert.Nil(t, idx.Search("anyone", 5))
}

func TestSaveLoad(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)

	tree, ids := people()

	idx, err := Open(fs, DefaultPath)
	require.NoError(t, err, "missing file opens empty")
	assert.Zero(t, idx.Len())

	idx.Rebuild(tree.Persons())
	require.NoError(t, idx.Save())

	reopened, err := Open(fs, DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.Len())

	got := reopened.Search("olga petrovna", 1)
	require.Len(t, got, 1)
	assert.Equal(t, ids["Olga"], got[0])
}

func TestRebuildReplaces(t *testing.T) {
	tree, ids := people()
	idx, err := Open(nil, "")
	require.NoError(t, err)
	idx.Rebuild(tree.Persons())

	tree.DeletePerson(ids["Mary"])
	idx.Rebuild(tree.Persons())
	assert.Equal(t, 3, idx.Len())
	for _, id := range idx.Search("mary smith", 3) {
		assert.NotEqual(t, ids["Mary"], id)
	}
}
