package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedServer(t *testing.T, total int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/institutions", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		require.NoError(t, err)
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(t, err)

		var data []json.RawMessage
		for i := offset; i < total && i < offset+limit; i++ {
			data = append(data, json.RawMessage(fmt.Sprintf(`{"data":{"CERT":"%d"}}`, i)))
		}

		resp := map[string]interface{}{
			"data": data,
			"meta": map[string]int{"total": total},
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRecordsPagination(t *testing.T) {
	srv := pagedServer(t, 25)
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL
	c.Limit = 10

	records, err := c.Records(context.Background(), "institutions")
	require.NoError(t, err)
	require.Len(t, records, 25)

	var rec struct {
		Data struct {
			Cert string `json:"CERT"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(records[24], &rec))
	assert.Equal(t, "24", rec.Data.Cert)
}

func TestRecordsEmpty(t *testing.T) {
	srv := pagedServer(t, 0)
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL
	c.Limit = 10

	records, err := c.Records(context.Background(), "institutions")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient()
	c.BaseURL = srv.URL

	_, err := c.Records(context.Background(), "institutions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDefinition(t *testing.T) {
	const doc = "CERT:\n  title: FDIC Certificate Number\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/institution_properties.yaml", r.URL.Path)
		fmt.Fprint(w, doc)
	}))
	defer srv.Close()

	c := NewClient()
	c.DocsURL = srv.URL

	dest := filepath.Join(t.TempDir(), "raw", "institution_properties.yaml")
	require.NoError(t, c.Definition(context.Background(), "institution_properties.yaml", dest))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, doc, string(b))
}

func TestSaveRecords(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"data":{"CERT":"628"}}`),
		json.RawMessage(`{"data":{"CERT":"999"}}`),
	}

	path := filepath.Join(t.TempDir(), "raw", "institutions_20240101.json")
	require.NoError(t, SaveRecords(records, path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]map[string]string
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "628", got[0]["data"]["CERT"])
}
