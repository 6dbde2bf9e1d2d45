package pdftest

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPageCounts(t *testing.T) {
	for _, pages := range []int{1, 3, 7} {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed

		got, err := api.PageCount(bytes.NewReader(Build(t, pages)), conf)
		require.NoError(t, err, "pages=%d", pages)
		assert.Equal(t, pages, got)
	}
}
