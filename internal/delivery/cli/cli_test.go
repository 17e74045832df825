package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinmatch/backend/internal/domain"
	"github.com/skinmatch/backend/internal/infrastructure/persistence"
)

const catalogJSON = `[
	{"id": "serum-1", "name": "Crème Hydratante Karité", "description": "Texte neutre de présentation du produit, sans mention particulière.", "category": "soins-visage", "subcategory": "visage"},
	{"id": "gel-1", "name": "Gel Purifiant Zinc", "description": "Texte neutre de présentation du produit, sans mention particulière.", "category": "soins-visage", "subcategory": "visage"},
	{"id": "mascara-1", "name": "Mascara Volume Hydratant", "description": "Texte neutre de présentation du produit, sans mention particulière.", "category": "maquillage", "subcategory": "yeux"}
]`

func resetFlagVars() {
	cfgFile, catalogFile = "", ""
	verbose, outputJSON = false, false
	recommendLimit, recommendDetected, recommendExplain = 0, "", false
	matchLimit, analyzeLimit = 0, 0
	importDriver, importDSN = "", ""
}

// setupWorkdir moves into an empty directory holding a catalog export
func setupWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o600))
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlagVars()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConcernsCmd(t *testing.T) {
	setupWorkdir(t)

	out, err := executeCommand(t, "concerns")
	require.NoError(t, err)
	assert.Contains(t, out, "Acné")
	assert.Contains(t, out, "Points noirs")

	out, err = executeCommand(t, "concerns", "--json")
	require.NoError(t, err)

	var entries []concernEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 9)
	assert.Equal(t, "Acné", entries[0].Name)
}

func TestRecommendCmd(t *testing.T) {
	path := setupWorkdir(t)

	t.Run("lists products", func(t *testing.T) {
		out, err := executeCommand(t, "recommend", "dry skin", "--catalog-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "[1] Crème Hydratante Karité (visage)")
		assert.NotContains(t, out, "Mascara")
	})

	t.Run("explain shows scores", func(t *testing.T) {
		out, err := executeCommand(t, "recommend", "acne", "--explain", "--catalog-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Gel Purifiant Zinc (20.0)")
	})

	t.Run("accepts detected concerns", func(t *testing.T) {
		out, err := executeCommand(t, "recommend", "Acné", "--detected", "acne,dry skin", "-n", "1", "--catalog-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Gel Purifiant Zinc")
	})

	t.Run("unknown concern", func(t *testing.T) {
		out, err := executeCommand(t, "recommend", "Licorne", "--catalog-file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "No products found.")
	})

	t.Run("json output", func(t *testing.T) {
		out, err := executeCommand(t, "recommend", "acne", "--json", "--catalog-file", path)
		require.NoError(t, err)
		var products []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &products))
		require.Len(t, products, 1)
		assert.Equal(t, "gel-1", products[0]["id"])
	})

	t.Run("requires exactly one arg", func(t *testing.T) {
		_, err := executeCommand(t, "recommend")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})

	t.Run("rejects negative limit", func(t *testing.T) {
		_, err := executeCommand(t, "recommend", "acne", "-n", "-1", "--catalog-file", path)
		assert.Error(t, err)
	})

	t.Run("fails without a usable catalog", func(t *testing.T) {
		_, err := executeCommand(t, "recommend", "acne")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestMatchCmd(t *testing.T) {
	path := setupWorkdir(t)

	out, err := executeCommand(t, "match", "Acné", "Peau sèche", "--catalog-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] Gel Purifiant Zinc (26.0) Acné")
	assert.Contains(t, out, "[2] Crème Hydratante Karité (26.0) Peau sèche")

	_, err = executeCommand(t, "match")
	assert.Error(t, err)
}

func TestAnalyzeCmd(t *testing.T) {
	path := setupWorkdir(t)

	detections := filepath.Join(filepath.Dir(path), "detections.json")
	require.NoError(t, os.WriteFile(detections, []byte(`[
		{"classId": 2, "score": 0.8, "bbox": [0, 0, 10, 10]},
		{"classId": 0, "score": 0.9, "bbox": [5, 5, 20, 20]}
	]`), 0o600))

	out, err := executeCommand(t, "analyze", detections, "--catalog-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Acné (90%)")
	assert.Contains(t, out, "Peau sèche (80%)")
	assert.Less(t, bytes.Index([]byte(out), []byte("Acné")), bytes.Index([]byte(out), []byte("Peau sèche")))

	_, err = executeCommand(t, "analyze", filepath.Join(filepath.Dir(path), "missing.json"), "--catalog-file", path)
	assert.Error(t, err)
}

func TestProductCmd(t *testing.T) {
	path := setupWorkdir(t)

	out, err := executeCommand(t, "product", "gel-1", "--catalog-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "gel-1  Gel Purifiant Zinc")
	assert.Contains(t, out, "subcategory: visage")

	_, err = executeCommand(t, "product", "unknown", "--catalog-file", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalogImportCmd_SharedCacheUnreachable(t *testing.T) {
	path := setupWorkdir(t)
	dsn := filepath.Join(filepath.Dir(path), "catalog.db")

	t.Setenv("SKINMATCH_CACHE_TYPE", "redis")
	t.Setenv("SKINMATCH_CACHE_REDIS_URL", "redis://127.0.0.1:1/0?dial_timeout=100ms&max_retries=-1")

	out, err := executeCommand(t, "catalog", "import", path, "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 products")
	assert.Contains(t, out, "could not clear cached catalog snapshot")
	assert.NotContains(t, out, "Cleared cached catalog snapshot")
}

func TestCatalogImportCmd(t *testing.T) {
	path := setupWorkdir(t)
	dsn := filepath.Join(filepath.Dir(path), "catalog.db")

	out, err := executeCommand(t, "catalog", "import", path, "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 products")
	assert.NotContains(t, out, "cached catalog snapshot")

	db, err := persistence.Open(persistence.DatabaseConfig{Driver: persistence.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	products, err := persistence.NewProductStore(db.DB).FetchAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
	require.NoError(t, db.Close())

	t.Setenv("SKINMATCH_CATALOG_SOURCE", "sql")
	t.Setenv("SKINMATCH_CATALOG_DATABASE_DRIVER", "sqlite")
	t.Setenv("SKINMATCH_CATALOG_DATABASE_DSN", dsn)

	out, err = executeCommand(t, "recommend", "acne")
	require.NoError(t, err)
	assert.Contains(t, out, "Gel Purifiant Zinc")
}
