// Package pdftest builds small PDF fixtures for tests.
package pdftest

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var builtinConfig sync.Once

// Build returns a valid PDF with the given number of blank letter-size pages.
func Build(t testing.TB, pages int) []byte {
	t.Helper()
	builtinConfig.Do(api.DisableConfigDir)

	ctx, err := pdfcpu.CreateContextWithXRefTable(model.NewDefaultConfiguration(), types.PaperSize["Letter"])
	if err != nil {
		t.Fatalf("create context: %v", err)
	}
	xRefTable := ctx.XRefTable

	root, err := xRefTable.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	pagesRef := root.IndirectRefEntry("Pages")
	if pagesRef == nil {
		t.Fatal("catalog has no page tree")
	}
	pagesDict, err := xRefTable.DereferenceDict(*pagesRef)
	if err != nil {
		t.Fatalf("page tree: %v", err)
	}

	kids := types.Array{}
	for range pages {
		page := types.Dict(map[string]types.Object{
			"Type":      types.Name("Page"),
			"Parent":    *pagesRef,
			"Resources": types.Dict(map[string]types.Object{}),
		})
		ref, err := xRefTable.IndRefForNewObject(page)
		if err != nil {
			t.Fatalf("add page: %v", err)
		}
		kids = append(kids, *ref)
	}
	pagesDict.Update("Kids", kids)
	pagesDict.Update("Count", types.Integer(pages))

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes a PDF with the given page count into a temp dir and
// returns its path.
func WriteFile(t testing.TB, name string, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(t, pages), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
