package textmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/layout"
)

func TestMeasureText(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	assert.Zero(t, m.MeasureText("", layout.NameFont))

	short := m.MeasureText("Al", layout.NameFont)
	long := m.MeasureText("Alexandria", layout.NameFont)
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)

	// Same text is narrower in the smaller date font.
	assert.Less(t, m.MeasureText("Alexandria", layout.DateFont), long)
}

func TestMetricsWithFonts(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	tree := family.NewTree(nil)
	short := tree.CreatePerson("Al", "Bo", family.GenderMale)
	long := tree.CreatePerson("Bartholomew-Maximilian", "Featherstonehaugh-Cholmondeley", family.GenderMale)

	metrics := layout.DefaultMetrics()
	metrics.Measurer = m

	assert.Equal(t, 150.0, metrics.Width(short))
	assert.Greater(t, metrics.Width(long), 150.0)
}
